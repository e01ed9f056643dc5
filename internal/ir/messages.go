package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Message builders shared by both schema front ends so that equivalent
// constraints read the same regardless of the source grammar.

// CardinalityMessage describes a relationship cardinality constraint.
func CardinalityMessage(source, relType, target string, minCount int, maxCount *int) string {
	switch {
	case minCount == 0 && maxCount != nil && *maxCount == 1:
		return fmt.Sprintf("%s may have at most one %s relationship to %s", source, relType, target)
	case minCount == 1 && maxCount != nil && *maxCount == 1:
		return fmt.Sprintf("%s must have exactly one %s relationship to %s", source, relType, target)
	case minCount == 1 && maxCount == nil:
		return fmt.Sprintf("%s must have at least one %s relationship to %s", source, relType, target)
	case minCount == 0 && maxCount == nil:
		return fmt.Sprintf("%s may have zero or more %s relationships to %s", source, relType, target)
	}
	maxStr := "∞"
	if maxCount != nil {
		maxStr = strconv.Itoa(*maxCount)
	}
	return fmt.Sprintf("%s must have %d..%s %s relationships to %s", source, minCount, maxStr, relType, target)
}

// ExistsMessage describes a required property.
func ExistsMessage(label, prop string) string {
	return fmt.Sprintf("%s node missing required '%s' property", label, prop)
}

// TypeMessage describes a datatype constraint.
func TypeMessage(label, prop, graphType string) string {
	return fmt.Sprintf("%s.%s must be of type %s", label, prop, graphType)
}

// ValuesMessage describes an enumerated value constraint.
func ValuesMessage(label, prop string, allowed []Value) string {
	return fmt.Sprintf("%s.%s must be one of: %s", label, prop, FormatValueList(allowed))
}

// PatternMessage describes a regular expression constraint.
func PatternMessage(label, prop, pattern string) string {
	return fmt.Sprintf("%s.%s must match pattern '%s'", label, prop, pattern)
}

// LengthMessage describes a string length constraint.
func LengthMessage(label, prop string, minLen, maxLen *int) string {
	var parts []string
	if minLen != nil {
		parts = append(parts, fmt.Sprintf("at least %d", *minLen))
	}
	if maxLen != nil {
		parts = append(parts, fmt.Sprintf("at most %d", *maxLen))
	}
	return fmt.Sprintf("%s.%s length must be %s characters", label, prop, strings.Join(parts, " and "))
}

// RangeMessage describes a numeric range constraint.
func RangeMessage(label, prop string, minInc, maxInc, minExc, maxExc *float64) string {
	var parts []string
	if minInc != nil {
		parts = append(parts, ">= "+FormatFloat(*minInc))
	}
	if maxInc != nil {
		parts = append(parts, "<= "+FormatFloat(*maxInc))
	}
	if minExc != nil {
		parts = append(parts, "> "+FormatFloat(*minExc))
	}
	if maxExc != nil {
		parts = append(parts, "< "+FormatFloat(*maxExc))
	}
	return fmt.Sprintf("%s.%s must be %s", label, prop, strings.Join(parts, ", "))
}

// PairMessage describes a property pair comparison.
func PairMessage(label, prop string, cmp Comparison, other string) string {
	return fmt.Sprintf("%s.%s must be %s %s.%s", label, prop, cmp, label, other)
}

// QualifiedMessage describes a qualified cardinality constraint.
func QualifiedMessage(label, prop string, qmin, qmax *int) string {
	var parts []string
	if qmin != nil {
		parts = append(parts, fmt.Sprintf("at least %d", *qmin))
	}
	if qmax != nil {
		parts = append(parts, fmt.Sprintf("at most %d", *qmax))
	}
	return fmt.Sprintf("%s.%s must have %s values matching qualified shape", label, prop, strings.Join(parts, " and "))
}

// LogicalMessage describes a logical combinator. NOT quotes its first
// operand, the others count theirs.
func LogicalMessage(label string, op LogicalOp, subs []Check) string {
	if op == OpNot {
		inner := ""
		if len(subs) > 0 {
			inner = subs[0].Base().Message
		}
		return fmt.Sprintf("%s must NOT satisfy: %s", label, inner)
	}
	return fmt.Sprintf("%s must satisfy %s of %d conditions", label, strings.ToUpper(string(op)), len(subs))
}

// UniqueLangMessage acknowledges an unenforceable language constraint.
func UniqueLangMessage(label, prop string) string {
	return fmt.Sprintf("uniqueLang on %s.%s: property graphs have no native language tags; constraint acknowledged but not enforced", label, prop)
}

// ClosedMessage describes a closed shape.
func ClosedMessage(label string, allowed []string) string {
	return fmt.Sprintf("%s is a closed shape; only declared properties are allowed: %s", label, FormatStringList(allowed))
}
