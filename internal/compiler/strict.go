package compiler

import (
	"fmt"
	"sort"

	"github.com/roach88/graphlint/internal/ir"
)

// StrictChecks derives closed-world coverage checks from a parsed plan:
// undeclared labels, undeclared relationship types, and per declared
// label its undeclared properties and an empty-population warning.
// Every strict check is a warning.
func StrictChecks(plan *ir.ValidationPlan) []ir.Check {
	labels := plan.DeclaredLabels()
	rels := declaredRelationships(plan.Checks)
	props := declaredProperties(plan.Checks)

	checks := []ir.Check{
		&ir.UndeclaredLabels{
			Meta: strictMeta(ir.StrictPrefix+"undeclared-labels", "*",
				fmt.Sprintf("Database contains node labels not declared in schema. Declared: %s",
					ir.FormatStringList(labels))),
			AllowedLabels: labels,
		},
		&ir.UndeclaredRelationshipTypes{
			Meta: strictMeta(ir.StrictPrefix+"undeclared-rel-types", "*",
				fmt.Sprintf("Database contains relationship types not declared in schema. Declared: %s",
					ir.FormatStringList(rels))),
			AllowedRelationships: rels,
		},
	}

	for _, label := range labels {
		allowed := props[label]
		if allowed == nil {
			allowed = []string{}
		}
		checks = append(checks, &ir.UndeclaredProperties{
			Meta: strictMeta(ir.StrictPrefix+ir.ShapeCheckID(label, "undeclared-props"), label,
				fmt.Sprintf("%s nodes have properties not declared in schema. Declared: %s",
					label, ir.FormatStringList(allowed))),
			AllowedProperties: allowed,
		})
	}
	for _, label := range labels {
		checks = append(checks, &ir.EmptyShape{
			Meta: strictMeta(ir.StrictPrefix+ir.ShapeCheckID(label, "empty"), label,
				fmt.Sprintf("Schema declares %s but no %s nodes exist in the database", label, label)),
		})
	}
	return checks
}

func strictMeta(id, label, message string) ir.Meta {
	return ir.Meta{
		ID:          id,
		TargetLabel: label,
		Severity:    ir.SeverityWarning,
		Message:     message,
	}
}

// declaredRelationships returns the sorted relationship types named by
// top-level checks.
func declaredRelationships(checks []ir.Check) []string {
	seen := map[string]bool{}
	for _, c := range checks {
		switch v := c.(type) {
		case ir.RelationshipCheck:
			seen[v.Target().Type] = true
		case *ir.QualifiedCardinality:
			if v.Relationship != nil {
				seen[v.Relationship.Type] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		if t != "" {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// declaredProperties groups the properties of top-level checks by label,
// in first-seen order.
func declaredProperties(checks []ir.Check) map[string][]string {
	out := map[string][]string{}
	seen := map[string]bool{}
	for _, c := range checks {
		pc, ok := c.(ir.PropertyCheck)
		if !ok {
			continue
		}
		label, prop := c.Base().TargetLabel, pc.PropertyName()
		if label == "" || prop == "" {
			continue
		}
		key := label + "\x00" + prop
		if seen[key] {
			continue
		}
		seen[key] = true
		out[label] = append(out[label], prop)
	}
	return out
}
