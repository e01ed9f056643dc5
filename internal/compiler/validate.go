package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/graphlint/internal/ir"
)

// Lint codes (E100-E199 structural, W200-W299 advisory).
const (
	// Structural plan defects reported by ir.Validate (E100)
	ErrInvalidPlan = "E100"

	ErrInvalidPattern = "E101" // pattern is not a valid regular expression

	WarnUnknownTarget    = "W201" // relationship target could not be resolved
	WarnUndeclaredTarget = "W202" // relationship target label has no shape
	WarnUnknownType      = "W203" // datatype has no graph type mapping
	WarnNoOpCardinality  = "W204" // 0..* cardinality can never fail
	WarnEmptyLogical     = "W205" // logical combinator without sub-checks
)

// knownTypes are the graph types produced by the XSD table.
var knownTypes = []string{"string", "integer", "float", "boolean", "date", "datetime"}

// ValidationError is one lint finding against a plan.
type ValidationError struct {
	Field   string `json:"field" yaml:"field"` // check id
	Message string `json:"message" yaml:"message"`
	Code    string `json:"code" yaml:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsWarning reports whether the finding is advisory.
func (e ValidationError) IsWarning() bool {
	return strings.HasPrefix(e.Code, "W")
}

// Lint checks a compiled plan for problems that would make its queries
// fail or mislead. Returns all findings (does not fail-fast).
func Lint(plan *ir.ValidationPlan) []ValidationError {
	var errs []ValidationError

	result := ir.Validate(plan)
	for _, p := range result.Problems {
		field, msg, _ := strings.Cut(p, ": ")
		errs = append(errs, ValidationError{Field: field, Message: msg, Code: ErrInvalidPlan})
	}

	declared := plan.DeclaredLabels()
	for _, c := range plan.Checks {
		ir.Walk(c, func(chk ir.Check) {
			errs = append(errs, lintCheck(chk, declared)...)
		})
	}
	return errs
}

func lintCheck(c ir.Check, declared []string) []ValidationError {
	var errs []ValidationError
	id := c.Base().ID

	switch v := c.(type) {
	case *ir.PropertyPattern:
		if _, err := regexp.Compile(v.Pattern); err != nil {
			errs = append(errs, ValidationError{
				Field:   id,
				Message: fmt.Sprintf("invalid pattern %q: %v", v.Pattern, err),
				Code:    ErrInvalidPattern,
			})
		}
	case *ir.PropertyType:
		if !slices.Contains(knownTypes, v.ExpectedType) {
			errs = append(errs, ValidationError{
				Field:   id,
				Message: fmt.Sprintf("type %q is not a graph type, the check compares type names literally", v.ExpectedType),
				Code:    WarnUnknownType,
			})
		}
	case *ir.RelationshipCardinality:
		errs = append(errs, lintTarget(id, v.Relationship, declared)...)
		if v.MinCount == 0 && v.MaxCount == nil {
			errs = append(errs, ValidationError{
				Field:   id,
				Message: "cardinality 0..* never fails and compiles to a no-op",
				Code:    WarnNoOpCardinality,
			})
		}
	case *ir.RelationshipEndpoint:
		errs = append(errs, lintTarget(id, v.Relationship, declared)...)
	case *ir.Logical:
		if len(v.SubChecks) == 0 {
			errs = append(errs, ValidationError{
				Field:   id,
				Message: "logical constraint has no sub-checks and never fails",
				Code:    WarnEmptyLogical,
			})
		}
	}
	return errs
}

func lintTarget(id string, rel ir.RelationshipTarget, declared []string) []ValidationError {
	switch {
	case rel.TargetLabel == "Unknown":
		return []ValidationError{{
			Field:   id,
			Message: fmt.Sprintf("target of %s could not be resolved, any node is accepted", rel.Type),
			Code:    WarnUnknownTarget,
		}}
	case !slices.Contains(declared, rel.TargetLabel):
		return []ValidationError{{
			Field:   id,
			Message: fmt.Sprintf("target label %s of %s has no shape in this schema", rel.TargetLabel, rel.Type),
			Code:    WarnUndeclaredTarget,
		}}
	}
	return nil
}
