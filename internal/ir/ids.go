package ir

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Check id suffixes. Ids are "{label}-{name}-{suffix}" with label and
// name lower-cased.
const (
	SuffixExists      = "exists"
	SuffixType        = "type"
	SuffixValues      = "values"
	SuffixHasValue    = "hasvalue"
	SuffixPattern     = "pattern"
	SuffixStrlen      = "strlen"
	SuffixRange       = "range"
	SuffixUniqueLang  = "uniquelang"
	SuffixQualified   = "qualified"
	SuffixCardinality = "cardinality"
	SuffixEndpoint    = "endpoint"

	SuffixQFilterType   = "qfilter-type"
	SuffixQFilterClass  = "qfilter-class"
	SuffixQFilterValues = "qfilter-values"

	SuffixInnerType     = "inner-type"
	SuffixInnerRange    = "inner-range"
	SuffixInnerPattern  = "inner-pattern"
	SuffixInnerHasValue = "inner-hasvalue"
	SuffixInnerExists   = "inner-exists"
	SuffixInnerValues   = "inner-values"
	SuffixInnerStrlen   = "inner-strlen"
)

// StrictPrefix marks ids of closed-world coverage checks.
const StrictPrefix = "strict-"

var lower = cases.Lower(language.Und)

// Slug lower-cases and NFC-normalises an id segment.
func Slug(s string) string {
	return lower.String(norm.NFC.String(s))
}

// CheckID builds the deterministic id of a check on one property or
// relationship of a label.
func CheckID(label, name, suffix string) string {
	return Slug(label) + "-" + Slug(name) + "-" + suffix
}

// ShapeCheckID builds the id of a check that applies to a whole label
// ("movie-logical-xone", "movie-closed-undeclared-props").
func ShapeCheckID(label, suffix string) string {
	return Slug(label) + "-" + suffix
}

// LogicalSuffix returns the id suffix for a logical operator.
func LogicalSuffix(op LogicalOp) string {
	return "logical-" + string(op)
}

// OperandID builds the id of the conjunction standing for operand n
// (from 1) of a logical combinator.
func OperandID(label string, op LogicalOp, n int) string {
	return ShapeCheckID(label, LogicalSuffix(op)+"-operand-"+strconv.Itoa(n))
}

// IsStrictID reports whether id belongs to a generated strict-mode check.
func IsStrictID(id string) bool {
	return strings.HasPrefix(id, StrictPrefix)
}

// DedupeIDs renames top-level checks whose id repeats an earlier one by
// appending "-2", "-3", ... in plan order. Parsing is deterministic, so
// the renamed ids are too.
func DedupeIDs(checks []Check) {
	used := make(map[string]bool, len(checks))
	for _, c := range checks {
		used[c.Base().ID] = false
	}
	for _, c := range checks {
		m := c.Base()
		if !used[m.ID] {
			used[m.ID] = true
			continue
		}
		for n := 2; ; n++ {
			candidate := m.ID + "-" + strconv.Itoa(n)
			if _, taken := used[candidate]; !taken {
				m.ID = candidate
				used[candidate] = true
				break
			}
		}
	}
}
