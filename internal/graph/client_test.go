package graph

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphlint/internal/config"
)

func TestNewClientRejectsScheme(t *testing.T) {
	_, err := NewClient(config.Neo4jConfig{URI: "ftp://localhost:7687"})
	assert.ErrorContains(t, err, "create neo4j driver")
}

func TestNewClientDoesNotConnect(t *testing.T) {
	c, err := NewClient(config.Neo4jConfig{URI: "bolt://localhost:1", User: "neo4j", Database: "movies"})
	require.NoError(t, err)
	assert.Equal(t, "movies", c.database)
}

func TestToRows(t *testing.T) {
	rows := toRows([]*neo4j.Record{
		{Keys: []string{"node_id", "labels", "check_id"}, Values: []any{"4:x:1", []any{"Movie"}, "movie-title-exists"}},
	})
	assert.Equal(t, []map[string]any{{
		"node_id":  "4:x:1",
		"labels":   []any{"Movie"},
		"check_id": "movie-title-exists",
	}}, rows)
	assert.Empty(t, toRows(nil))
}
