package ir

import "fmt"

// ValidationResult lists structural problems found in a plan.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems lists each defect as a human-readable line prefixed by
	// the offending check id.
	Problems []string
}

// Validate checks the plan's structural invariants: ids present and
// unique among top-level checks, bounds ordered and non-negative, nested
// checks present where the kind requires them.
//
// Parsers never produce invalid plans; Validate guards plans assembled
// by hand or decoded from other tools.
//
// Validate is a pure function with no side effects.
func Validate(p *ValidationPlan) ValidationResult {
	v := &validator{
		ids:      make(map[string]bool, len(p.Checks)),
		problems: []string{},
	}
	for _, c := range p.Checks {
		if c == nil {
			v.add("", "nil check")
			continue
		}
		id := c.Base().ID
		if id != "" && v.ids[id] {
			v.add(id, "duplicate check id")
		}
		v.ids[id] = true
		v.validateCheck(c)
	}
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	ids      map[string]bool
	problems []string
}

func (v *validator) add(id, format string, args ...any) {
	if id == "" {
		id = "<no id>"
	}
	v.problems = append(v.problems, id+": "+fmt.Sprintf(format, args...))
}

func (v *validator) validateCheck(c Check) {
	m := c.Base()
	id := m.ID
	if id == "" {
		v.add(id, "missing id")
	}
	if m.TargetLabel == "" {
		v.add(id, "missing target label")
	}
	switch m.Severity {
	case SeverityViolation, SeverityWarning, SeverityInfo:
	default:
		v.add(id, "unknown severity %q", m.Severity)
	}

	if pc, ok := c.(PropertyCheck); ok && pc.PropertyName() == "" {
		v.add(id, "missing property")
	}

	switch chk := c.(type) {
	case *PropertyStringLength:
		if chk.MinLength == nil && chk.MaxLength == nil {
			v.add(id, "string length check without bounds")
		}
		v.ordered(id, "length", chk.MinLength, chk.MaxLength)
	case *PropertyRange:
		if chk.MinInclusive == nil && chk.MaxInclusive == nil &&
			chk.MinExclusive == nil && chk.MaxExclusive == nil {
			v.add(id, "range check without bounds")
		}
	case *PropertyValueIn:
		if len(chk.AllowedValues) == 0 {
			v.add(id, "value set is empty")
		}
	case *PropertyPair:
		if chk.CompareProperty == "" {
			v.add(id, "missing comparison property")
		}
	case *RelationshipCardinality:
		if chk.Relationship.Type == "" {
			v.add(id, "missing relationship type")
		}
		if chk.MinCount < 0 {
			v.add(id, "negative min count %d", chk.MinCount)
		}
		v.ordered(id, "count", &chk.MinCount, chk.MaxCount)
	case *RelationshipEndpoint:
		if chk.Relationship.Type == "" {
			v.add(id, "missing relationship type")
		}
	case *QualifiedCardinality:
		if chk.Filter == nil {
			v.add(id, "qualified cardinality without filter")
		} else {
			v.validateCheck(chk.Filter)
		}
		v.ordered(id, "qualified count", chk.QualifiedMin, chk.QualifiedMax)
	case *Logical:
		for _, sub := range chk.SubChecks {
			if sub == nil {
				v.add(id, "nil sub-check")
				continue
			}
			v.validateCheck(sub)
		}
	}
}

func (v *validator) ordered(id, what string, lo, hi *int) {
	if lo != nil && *lo < 0 {
		v.add(id, "negative minimum %s %d", what, *lo)
	}
	if hi != nil && *hi < 0 {
		v.add(id, "negative maximum %s %d", what, *hi)
	}
	if lo != nil && hi != nil && *lo > *hi {
		v.add(id, "minimum %s %d exceeds maximum %d", what, *lo, *hi)
	}
}
