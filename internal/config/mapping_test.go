package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ex = "http://example.org/movies#"

func TestLoadMappingYAML(t *testing.T) {
	m, err := LoadMapping(writeFile(t, "mapping.yaml", `
classes:
  "http://example.org/movies#Movie": Film
relationships:
  "http://example.org/movies#hasActor": ACTED_IN
`))
	require.NoError(t, err)
	assert.Equal(t, "Film", m.LabelFor(ex+"Movie"))
	assert.Equal(t, "ACTED_IN", m.RelationshipFor(ex+"hasActor"))
	assert.Equal(t, "title", m.PropertyFor(ex+"title"))
	assert.NotNil(t, m.PredicatesToProperties)
}

func TestLoadMappingJSON(t *testing.T) {
	m, err := LoadMapping(writeFile(t, "mapping.json",
		`{"properties": {"http://example.org/movies#released": "year"}}`))
	require.NoError(t, err)
	assert.Equal(t, "year", m.PropertyFor(ex+"released"))
}

func TestLoadMappingCUE(t *testing.T) {
	m, err := LoadMapping(writeFile(t, "mapping.cue", `
let ns = "http://example.org/movies#"
classes: (ns + "Person"): "Human"
relationships: (ns + "hasDirector"): "DIRECTED_BY"
`))
	require.NoError(t, err)
	assert.Equal(t, "Human", m.LabelFor(ex+"Person"))
	assert.Equal(t, "DIRECTED_BY", m.RelationshipFor(ex+"hasDirector"))
}

func TestLoadMappingErrors(t *testing.T) {
	tests := []struct {
		name, file, content, code string
	}{
		{"extension", "mapping.toml", "", ErrCodeFormat},
		{"yaml syntax", "mapping.yaml", "classes: [unclosed", ErrCodeSyntax},
		{"cue syntax", "mapping.cue", "classes: {", ErrCodeSyntax},
		{"cue shape", "mapping.cue", "classes: 3", ErrCodeShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMapping(writeFile(t, tt.file, tt.content))
			var le *LoadError
			require.True(t, errors.As(err, &le), "got %v", err)
			assert.Equal(t, tt.code, le.Code)
		})
	}

	_, err := LoadMapping("does-not-exist.yaml")
	assert.ErrorContains(t, err, ErrCodeNotFound)
}
