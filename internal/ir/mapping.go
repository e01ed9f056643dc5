package ir

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Mapping translates schema IRIs into property graph names.
//
// Lookups consult the override tables first and otherwise fall back to
// convention: the local name of the IRI (after the last '#', else after
// the last '/') for labels and properties, and the local name converted
// from camelCase to UPPER_SNAKE_CASE for relationship types.
//
// A Mapping is built once per parse and never mutated afterwards; the
// zero value is the pure-convention mapping.
type Mapping struct {
	ClassesToLabels           map[string]string `json:"classes,omitempty" yaml:"classes,omitempty"`
	PredicatesToRelationships map[string]string `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	PredicatesToProperties    map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// NewMapping returns a Mapping with empty override tables.
func NewMapping() *Mapping {
	return &Mapping{
		ClassesToLabels:           map[string]string{},
		PredicatesToRelationships: map[string]string{},
		PredicatesToProperties:    map[string]string{},
	}
}

// LabelFor returns the node label for a class IRI.
func (m *Mapping) LabelFor(iri string) string {
	if m != nil {
		if name, ok := m.ClassesToLabels[iri]; ok {
			return name
		}
	}
	return LocalName(iri)
}

// PropertyFor returns the property key for a predicate IRI.
func (m *Mapping) PropertyFor(iri string) string {
	if m != nil {
		if name, ok := m.PredicatesToProperties[iri]; ok {
			return name
		}
	}
	return LocalName(iri)
}

// RelationshipFor returns the relationship type for a predicate IRI.
func (m *Mapping) RelationshipFor(iri string) string {
	if m != nil {
		if name, ok := m.PredicatesToRelationships[iri]; ok {
			return name
		}
	}
	return UpperSnake(LocalName(iri))
}

// Merge returns a new Mapping with other's entries layered over m's.
func (m *Mapping) Merge(other *Mapping) *Mapping {
	out := NewMapping()
	for _, src := range []*Mapping{m, other} {
		if src == nil {
			continue
		}
		for k, v := range src.ClassesToLabels {
			out.ClassesToLabels[k] = v
		}
		for k, v := range src.PredicatesToRelationships {
			out.PredicatesToRelationships[k] = v
		}
		for k, v := range src.PredicatesToProperties {
			out.PredicatesToProperties[k] = v
		}
	}
	return out
}

// LocalName strips the namespace from an IRI: the fragment after the
// last '#', else the last path segment. Identifiers without either
// separator are returned unchanged. The result is NFC-normalised so
// visually identical names compare equal.
func LocalName(iri string) string {
	local := iri
	if i := strings.LastIndexByte(iri, '#'); i >= 0 {
		local = iri[i+1:]
	} else if i := strings.LastIndexByte(iri, '/'); i >= 0 {
		local = iri[i+1:]
	}
	return norm.NFC.String(local)
}

var upper = cases.Upper(language.Und)

// UpperSnake converts camelCase to UPPER_SNAKE_CASE: an underscore is
// inserted before every uppercase letter except the first rune, then the
// whole string is upper-cased.
//
//	hasActor  -> HAS_ACTOR
//	inGenre   -> IN_GENRE
//	HTTPProxy -> H_T_T_P_PROXY
func UpperSnake(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return upper.String(b.String())
}
