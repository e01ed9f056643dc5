package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   Format
	}{
		{"turtle prefix", "@prefix ex: <http://example.org/> .", FormatSHACL},
		{"shacl namespace", "PREFIX sh: <http://www.w3.org/ns/shacl#>", FormatSHACL},
		{"node shape", "ex:S a sh:NodeShape .", FormatSHACL},
		{"shexc", "PREFIX ex: <http://example.org/>\nex:S { ex:p . }", FormatShExC},
		{"empty", "", FormatShExC},
		// First match wins: a ShExC comment mentioning SHACL misroutes.
		{"ambiguous", "# converted from sh:NodeShape\nex:S { ex:p . }", FormatSHACL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.schema))
		})
	}
}

func TestDetectFormatFixtures(t *testing.T) {
	assert.Equal(t, FormatSHACL, DetectFormat(readFixture(t, "movies.shacl.ttl")))
	assert.Equal(t, FormatShExC, DetectFormat(readFixture(t, "movies.shex")))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":       "",
		"shacl":  FormatSHACL,
		"TTL":    FormatSHACL,
		"turtle": FormatSHACL,
		"shex":   FormatShExC,
		" ShExC": FormatShExC,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("owl")
	assert.Error(t, err)
}
