package backend

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/graphlint/internal/ir"
)

// Dialect holds the syntax that differs between query languages.
type Dialect struct {
	Name string

	// ElementID is the function returning a node or relationship id.
	ElementID string

	// ValueType is the function returning a value's type name.
	ValueType string

	True  string
	False string

	// Types maps graph type names to the prefixes of the ValueType
	// results that satisfy them. Unknown names are upper-cased.
	Types map[string][]string
}

// Cypher targets Neo4j 5.
var Cypher = Dialect{
	Name:      "cypher",
	ElementID: "elementId",
	ValueType: "valueType",
	True:      "true",
	False:     "false",
	Types: map[string][]string{
		"string":   {"STRING"},
		"integer":  {"INTEGER"},
		"float":    {"FLOAT"},
		"boolean":  {"BOOLEAN"},
		"date":     {"DATE"},
		"datetime": {"ZONED DATETIME", "LOCAL DATETIME"},
	},
}

// GQL targets ISO/IEC 39075.
var GQL = Dialect{
	Name:      "gql",
	ElementID: "element_id",
	ValueType: "value_type",
	True:      "TRUE",
	False:     "FALSE",
	Types: map[string][]string{
		"string":   {"STRING"},
		"integer":  {"INTEGER"},
		"float":    {"FLOAT"},
		"boolean":  {"BOOLEAN"},
		"date":     {"DATE"},
		"datetime": {"TIMESTAMP"},
	},
}

func (d Dialect) typeNames(graphType string) []string {
	if t, ok := d.Types[graphType]; ok {
		return t
	}
	return []string{strings.ToUpper(graphType)}
}

// Accepts reports whether a value whose ValueType result is valueType
// passes the type test rendered for graphType.
func (d Dialect) Accepts(valueType, graphType string) bool {
	for _, name := range d.typeNames(graphType) {
		if strings.HasPrefix(valueType, name) {
			return true
		}
	}
	return false
}

var simpleIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ident quotes a label, relationship type or property key when it is not
// a plain identifier.
func ident(name string) string {
	if simpleIdent.MatchString(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// quote renders s as a single-quoted string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func (d Dialect) literal(v ir.Value) string {
	switch val := v.(type) {
	case ir.String:
		return quote(string(val))
	case ir.Int:
		return strconv.FormatInt(int64(val), 10)
	case ir.Float:
		return ir.FormatFloat(float64(val))
	case ir.Bool:
		if val {
			return d.True
		}
		return d.False
	}
	return quote(ir.FormatValue(v))
}

func (d Dialect) list(vs []ir.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = d.literal(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func stringList(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = quote(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
