package compiler

import (
	"fmt"
	"strings"
)

// Format names a schema grammar.
type Format string

const (
	FormatSHACL Format = "shacl"
	FormatShExC Format = "shexc"
)

// Formats lists the supported grammars.
var Formats = []Format{FormatSHACL, FormatShExC}

// ParseFormat accepts a format name as typed on a command line.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "shacl", "ttl", "turtle":
		return FormatSHACL, nil
	case "shex", "shexc":
		return FormatShExC, nil
	}
	return "", fmt.Errorf("unknown schema format %q (want shacl or shexc)", s)
}

// shaclSignals are substrings that only SHACL-in-Turtle schemas contain.
// Checked in order; the first hit wins.
var shaclSignals = []string{
	"http://www.w3.org/ns/shacl#",
	"sh:NodeShape",
	"sh:property",
	"sh:path",
	"@prefix",
}

// DetectFormat guesses the grammar of schema from lexical signals. It is
// a heuristic, not a parse: the first SHACL signal found selects SHACL,
// otherwise ShExC is assumed. A ShExC schema that mentions a SHACL
// signal (in a comment, say) is misrouted; pass an explicit format then.
func DetectFormat(schema string) Format {
	for _, sig := range shaclSignals {
		if strings.Contains(schema, sig) {
			return FormatSHACL
		}
	}
	return FormatShExC
}
