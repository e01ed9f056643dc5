// Package backend compiles checks into graph query text.
//
// Every executable query returns one row per violating element with at
// least node_id (or rel_id), labels and check_id columns; zero rows means
// the check passed. Checks that can never fail compile to a no-op: a
// string starting with "//" that callers must not execute.
//
// Cypher and GQL share one generator parameterised by a Dialect; they
// differ only in function names, type names and boolean literals.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/graphlint/internal/ir"
)

// Backend translates checks for one query language.
type Backend interface {
	Name() string

	// CompileCheck returns the query for c, or a no-op marker. Kinds the
	// backend has no generator for fail with *UnsupportedKindError.
	CompileCheck(c ir.Check) (string, error)

	// CountQuery counts nodes with label as column cnt.
	CountQuery(label string) string

	// PropertyCountQuery counts label nodes with a non-null prop as
	// column cnt.
	PropertyCountQuery(label, prop string) string
}

// UnsupportedKindError is returned for a check kind a backend cannot
// translate.
type UnsupportedKindError struct {
	Backend string
	Kind    ir.Kind
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("%s backend: check kind %s is not supported", e.Backend, e.Kind)
}

// noOpPrefix starts every query that must not be executed.
const noOpPrefix = "//"

// IsNoOp reports whether query is a no-op marker.
func IsNoOp(query string) bool {
	return strings.HasPrefix(strings.TrimSpace(query), noOpPrefix)
}

var registry = map[string]Dialect{
	Cypher.Name: Cypher,
	GQL.Name:    GQL,
}

// Get returns the backend registered under name.
func Get(name string) (Backend, error) {
	d, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return New(d), nil
}

// Names lists the registered backends, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
