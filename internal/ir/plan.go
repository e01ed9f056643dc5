package ir

import (
	"encoding/json"
	"fmt"
)

// ValidationPlan is the ordered output of one schema parse.
// Check order is shape declaration order and is significant for
// reproducible output. Read-only once returned by a parser.
type ValidationPlan struct {
	SchemaSource string
	Checks       []Check
	// Shapes lists the declared class (or shape) identifiers, one per
	// declared label, in declaration order.
	Shapes  []string
	Mapping *Mapping
}

// DeclaredLabels maps Shapes through the plan's Mapping, preserving order
// and dropping duplicates.
func (p *ValidationPlan) DeclaredLabels() []string {
	seen := make(map[string]bool, len(p.Shapes))
	labels := make([]string, 0, len(p.Shapes))
	for _, iri := range p.Shapes {
		label := p.Mapping.LabelFor(iri)
		if seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

// CountByKind tallies top-level checks per kind.
func (p *ValidationPlan) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, c := range p.Checks {
		counts[c.Kind()]++
	}
	return counts
}

// Find returns the top-level check with the given id.
func (p *ValidationPlan) Find(id string) (Check, bool) {
	for _, c := range p.Checks {
		if c.Base().ID == id {
			return c, true
		}
	}
	return nil, false
}

// PlanDocument is the serialized form of a ValidationPlan.
type PlanDocument struct {
	SchemaSource string          `json:"schema_source" yaml:"schema_source"`
	Shapes       []string        `json:"shapes" yaml:"shapes"`
	Checks       []CheckDocument `json:"checks" yaml:"checks"`
}

// CheckDocument is the flat serialized form of a Check. Fields that do not
// apply to the check's kind are omitted.
type CheckDocument struct {
	ID          string `json:"id" yaml:"id"`
	Type        Kind   `json:"type" yaml:"type"`
	Shape       string `json:"shape,omitempty" yaml:"shape,omitempty"`
	TargetLabel string `json:"target_label" yaml:"target_label"`
	Severity    string `json:"severity" yaml:"severity"`
	Message     string `json:"message" yaml:"message"`

	Property       string `json:"property,omitempty" yaml:"property,omitempty"`
	ExpectedType   string `json:"expected_type,omitempty" yaml:"expected_type,omitempty"`
	AllowedValues  []any  `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`
	OnlyIfExists   *bool  `json:"only_if_exists,omitempty" yaml:"only_if_exists,omitempty"`
	Pattern        string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	PatternFlags   string `json:"pattern_flags,omitempty" yaml:"pattern_flags,omitempty"`
	MinLength      *int   `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength      *int   `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	CompareProp    string `json:"compare_property,omitempty" yaml:"compare_property,omitempty"`
	ComparisonType string `json:"comparison_type,omitempty" yaml:"comparison_type,omitempty"`

	MinInclusive *float64 `json:"min_inclusive,omitempty" yaml:"min_inclusive,omitempty"`
	MaxInclusive *float64 `json:"max_inclusive,omitempty" yaml:"max_inclusive,omitempty"`
	MinExclusive *float64 `json:"min_exclusive,omitempty" yaml:"min_exclusive,omitempty"`
	MaxExclusive *float64 `json:"max_exclusive,omitempty" yaml:"max_exclusive,omitempty"`

	Relationship     *RelationshipTarget `json:"relationship,omitempty" yaml:"relationship,omitempty"`
	MinCount         *int                `json:"min_count,omitempty" yaml:"min_count,omitempty"`
	MaxCount         *int                `json:"max_count,omitempty" yaml:"max_count,omitempty"`
	AcceptableLabels []string            `json:"acceptable_labels,omitempty" yaml:"acceptable_labels,omitempty"`

	AllowedLabels        []string `json:"allowed_labels,omitempty" yaml:"allowed_labels,omitempty"`
	AllowedRelationships []string `json:"allowed_relationships,omitempty" yaml:"allowed_relationships,omitempty"`
	AllowedProperties    []string `json:"allowed_properties,omitempty" yaml:"allowed_properties,omitempty"`

	QualifiedFilter *CheckDocument  `json:"qualified_filter,omitempty" yaml:"qualified_filter,omitempty"`
	QualifiedMin    *int            `json:"qualified_min,omitempty" yaml:"qualified_min,omitempty"`
	QualifiedMax    *int            `json:"qualified_max,omitempty" yaml:"qualified_max,omitempty"`
	SubChecks       []CheckDocument `json:"sub_checks,omitempty" yaml:"sub_checks,omitempty"`

	DefaultValue any  `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	DisplayOrder *int `json:"display_order,omitempty" yaml:"display_order,omitempty"`
}

// Document converts the plan to its serializable form.
func (p *ValidationPlan) Document() PlanDocument {
	doc := PlanDocument{
		SchemaSource: p.SchemaSource,
		Shapes:       p.Shapes,
		Checks:       make([]CheckDocument, 0, len(p.Checks)),
	}
	if doc.Shapes == nil {
		doc.Shapes = []string{}
	}
	for _, c := range p.Checks {
		doc.Checks = append(doc.Checks, DocumentOf(c))
	}
	return doc
}

// MarshalJSON implements json.Marshaler.
func (p *ValidationPlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Document())
}

// DocumentOf flattens one check.
func DocumentOf(c Check) CheckDocument {
	m := c.Base()
	doc := CheckDocument{
		ID:           m.ID,
		Type:         c.Kind(),
		Shape:        m.Shape,
		TargetLabel:  m.TargetLabel,
		Severity:     string(m.Severity),
		Message:      m.Message,
		DisplayOrder: m.DisplayOrder,
	}
	if m.DefaultValue != nil {
		doc.DefaultValue = m.DefaultValue.Native()
	}

	switch v := c.(type) {
	case *PropertyExists:
		doc.Property = v.Property
	case *PropertyType:
		doc.Property = v.Property
		doc.ExpectedType = v.ExpectedType
		doc.OnlyIfExists = boolPtr(v.OnlyIfExists)
	case *PropertyValueIn:
		doc.Property = v.Property
		doc.AllowedValues = natives(v.AllowedValues)
		doc.OnlyIfExists = boolPtr(v.OnlyIfExists)
	case *PropertyPattern:
		doc.Property = v.Property
		doc.Pattern = v.Pattern
		doc.PatternFlags = v.Flags
		doc.OnlyIfExists = boolPtr(v.OnlyIfExists)
	case *PropertyStringLength:
		doc.Property = v.Property
		doc.MinLength = v.MinLength
		doc.MaxLength = v.MaxLength
		doc.OnlyIfExists = boolPtr(v.OnlyIfExists)
	case *PropertyRange:
		doc.Property = v.Property
		doc.MinInclusive = v.MinInclusive
		doc.MaxInclusive = v.MaxInclusive
		doc.MinExclusive = v.MinExclusive
		doc.MaxExclusive = v.MaxExclusive
		doc.OnlyIfExists = boolPtr(v.OnlyIfExists)
	case *PropertyPair:
		doc.Property = v.Property
		doc.CompareProp = v.CompareProperty
		doc.ComparisonType = string(v.Comparison)
		doc.OnlyIfExists = boolPtr(v.OnlyIfExists)
	case *RelationshipCardinality:
		rel := v.Relationship
		doc.Relationship = &rel
		doc.MinCount = intPtr(v.MinCount)
		doc.MaxCount = v.MaxCount
		doc.AcceptableLabels = v.AcceptableLabels
	case *RelationshipEndpoint:
		rel := v.Relationship
		doc.Relationship = &rel
	case *QualifiedCardinality:
		doc.Property = v.Property
		doc.Relationship = v.Relationship
		if v.Filter != nil {
			f := DocumentOf(v.Filter)
			doc.QualifiedFilter = &f
		}
		doc.QualifiedMin = v.QualifiedMin
		doc.QualifiedMax = v.QualifiedMax
	case *Logical:
		doc.SubChecks = make([]CheckDocument, 0, len(v.SubChecks))
		for _, sub := range v.SubChecks {
			doc.SubChecks = append(doc.SubChecks, DocumentOf(sub))
		}
	case *UniqueLang:
		doc.Property = v.Property
	case *UndeclaredLabels:
		doc.AllowedLabels = v.AllowedLabels
	case *UndeclaredRelationshipTypes:
		doc.AllowedRelationships = v.AllowedRelationships
	case *UndeclaredProperties:
		doc.AllowedProperties = v.AllowedProperties
	case *EmptyShape:
	}
	return doc
}

// Fingerprint returns a content hash of the plan's serialized form.
// Two plans with the same checks in the same order share a fingerprint,
// regardless of SchemaSource.
func (p *ValidationPlan) Fingerprint() (string, error) {
	doc := p.Document()
	doc.SchemaSource = ""
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPlan, data), nil
}

func natives(vs []Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v.Native()
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

// Ptr returns a pointer to v. Used for optional bounds.
func Ptr[T any](v T) *T { return &v }
