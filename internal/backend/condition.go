package backend

import (
	"fmt"
	"strings"

	"github.com/roach88/graphlint/internal/ir"
)

// condition renders the boolean expression over n that holds when n
// satisfies c. Used for logical sub-checks and qualified filters.
//
// Value conditions require the property to be present: an absent
// property never satisfies them, so NOT over a value condition passes
// nodes that lack the property.
func (g *Generator) condition(c ir.Check) (string, error) {
	switch chk := c.(type) {
	case *ir.PropertyExists:
		return propRef(chk.Property) + " IS NOT NULL", nil
	case *ir.PropertyType:
		return present(chk.Property, g.typeTest(chk.Property, chk.ExpectedType)), nil
	case *ir.PropertyValueIn:
		return present(chk.Property, propRef(chk.Property)+" IN "+g.d.list(chk.AllowedValues)), nil
	case *ir.PropertyPattern:
		return present(chk.Property, propRef(chk.Property)+" =~ "+regex(chk.Pattern, chk.Flags)), nil
	case *ir.PropertyStringLength:
		p := propRef(chk.Property)
		var conds []string
		if chk.MinLength != nil {
			conds = append(conds, fmt.Sprintf("size(%s) >= %d", p, *chk.MinLength))
		}
		if chk.MaxLength != nil {
			conds = append(conds, fmt.Sprintf("size(%s) <= %d", p, *chk.MaxLength))
		}
		return present(chk.Property, conds...), nil
	case *ir.PropertyRange:
		p := propRef(chk.Property)
		var conds []string
		if chk.MinInclusive != nil {
			conds = append(conds, p+" >= "+ir.FormatFloat(*chk.MinInclusive))
		}
		if chk.MaxInclusive != nil {
			conds = append(conds, p+" <= "+ir.FormatFloat(*chk.MaxInclusive))
		}
		if chk.MinExclusive != nil {
			conds = append(conds, p+" > "+ir.FormatFloat(*chk.MinExclusive))
		}
		if chk.MaxExclusive != nil {
			conds = append(conds, p+" < "+ir.FormatFloat(*chk.MaxExclusive))
		}
		return present(chk.Property, conds...), nil
	case *ir.PropertyPair:
		holds, ok := pairHolds(propRef(chk.Property), propRef(chk.CompareProperty), chk.Comparison)
		if !ok {
			return "", fmt.Errorf("%s backend: check %s: unknown comparison %q", g.d.Name, chk.ID, chk.Comparison)
		}
		return propRef(chk.Property) + " IS NOT NULL AND " + propRef(chk.CompareProperty) + " IS NOT NULL AND " + holds, nil
	case *ir.Logical:
		return g.nestedCondition(chk)
	case nil:
		return "", fmt.Errorf("%s backend: nil sub-check", g.d.Name)
	}
	return "", &UnsupportedKindError{Backend: g.d.Name, Kind: c.Kind()}
}

// present conjoins a non-null test on prop with conds.
func present(prop string, conds ...string) string {
	return strings.Join(append([]string{propRef(prop) + " IS NOT NULL"}, conds...), " AND ")
}

// nestedCondition renders a logical check used inside another one.
func (g *Generator) nestedCondition(c *ir.Logical) (string, error) {
	if len(c.SubChecks) == 0 {
		// An empty combinator never fails, so it is always satisfied.
		return g.d.True, nil
	}
	conds := make([]string, len(c.SubChecks))
	for i, sub := range c.SubChecks {
		cond, err := g.condition(sub)
		if err != nil {
			return "", err
		}
		conds[i] = cond
	}
	switch c.Op {
	case ir.OpNot:
		return "NOT (" + strings.Join(wrap(conds), " AND ") + ")", nil
	case ir.OpAnd:
		return "(" + strings.Join(wrap(conds), " AND ") + ")", nil
	case ir.OpOr:
		return "(" + strings.Join(wrap(conds), " OR ") + ")", nil
	default:
		return "(" + satisfiedSum(conds) + ") = 1", nil
	}
}

func wrap(conds []string) []string {
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = "(" + c + ")"
	}
	return out
}
