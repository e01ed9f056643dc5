package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/ir"
)

type labelProp struct {
	label, prop string
}

// population records which declared labels and (label, property) pairs
// have no instances in the graph.
type population struct {
	emptyLabels map[string]bool
	emptyProps  map[labelProp]bool
}

// vacuousProp reports whether k's "pass" says nothing when no node
// carries the constrained property. Existence checks are excluded: an
// absent property is exactly what they report.
func vacuousProp(k ir.Kind) bool {
	switch k {
	case ir.KindPropertyType, ir.KindPropertyValueIn, ir.KindPropertyPattern,
		ir.KindPropertyStringLength, ir.KindPropertyRange, ir.KindPropertyPair:
		return true
	}
	return false
}

// survey runs the pre-flight count queries: one per declared label, then
// one per (label, property) pair of a value check whose label has nodes.
func survey(ctx context.Context, plan *ir.ValidationPlan, compiled []CompiledCheck, b backend.Backend, sess Session) (*population, error) {
	pop := &population{
		emptyLabels: make(map[string]bool),
		emptyProps:  make(map[labelProp]bool),
	}

	for _, label := range plan.DeclaredLabels() {
		n, err := count(ctx, sess, b.CountQuery(label))
		if err != nil {
			return nil, preflightError("label "+label, err)
		}
		if n == 0 {
			pop.emptyLabels[label] = true
		}
	}

	seen := make(map[labelProp]bool)
	var pairs []labelProp
	for _, cc := range compiled {
		pc, ok := cc.Check.(ir.PropertyCheck)
		if !ok || !vacuousProp(pc.Kind()) || pc.PropertyName() == "" {
			continue
		}
		lp := labelProp{label: pc.Base().TargetLabel, prop: pc.PropertyName()}
		if !seen[lp] {
			seen[lp] = true
			pairs = append(pairs, lp)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].label != pairs[j].label {
			return pairs[i].label < pairs[j].label
		}
		return pairs[i].prop < pairs[j].prop
	})

	for _, lp := range pairs {
		if pop.emptyLabels[lp.label] {
			continue
		}
		n, err := count(ctx, sess, b.PropertyCountQuery(lp.label, lp.prop))
		if err != nil {
			return nil, preflightError(lp.label+"."+lp.prop, err)
		}
		if n == 0 {
			pop.emptyProps[lp] = true
		}
	}

	slog.Debug("population surveyed",
		"empty_labels", len(pop.emptyLabels),
		"empty_properties", len(pop.emptyProps))
	return pop, nil
}

// vacuous reports whether c cannot be meaningfully evaluated. An empty
// label makes every check on it vacuous except the one that reports the
// empty label itself.
func (p *population) vacuous(c ir.Check) bool {
	m := c.Base()
	if p.emptyLabels[m.TargetLabel] && c.Kind() != ir.KindEmptyShape {
		return true
	}
	if pc, ok := c.(ir.PropertyCheck); ok && vacuousProp(c.Kind()) {
		return p.emptyProps[labelProp{label: m.TargetLabel, prop: pc.PropertyName()}]
	}
	return false
}

// count runs a single-row count query and returns its cnt column.
func count(ctx context.Context, sess Session, query string) (int64, error) {
	rows, err := sess.Run(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("count query returned no rows")
	}
	return toInt64(rows[0]["cnt"])
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("count column has type %T", v)
}
