package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.User)
	assert.Equal(t, "cypher", cfg.Backend)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.False(t, cfg.Strict)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, "graphlint.yaml", `
neo4j:
  uri: neo4j://graph.internal:7687
  database: movies
backend: gql
strict: true
concurrency: 4
`)
	t.Setenv("GRAPHLINT_NEO4J_PASSWORD", "s3cret")
	t.Setenv("GRAPHLINT_CONCURRENCY", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "neo4j://graph.internal:7687", cfg.Neo4j.URI)
	assert.Equal(t, "movies", cfg.Neo4j.Database)
	assert.Equal(t, "s3cret", cfg.Neo4j.Password)
	assert.Equal(t, "gql", cfg.Backend)
	assert.True(t, cfg.Strict)
	// Environment beats the file.
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "bad.yaml", "backend: sparql\n"))
	assert.ErrorContains(t, err, `unknown backend "sparql"`)

	_, err = Load(writeFile(t, "zero.yaml", "concurrency: 0\n"))
	assert.ErrorContains(t, err, "concurrency must be at least 1")
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "GRAPHLINT_TEST_DOTENV=from-file\n")
	t.Setenv("GRAPHLINT_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("GRAPHLINT_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "from-file", os.Getenv("GRAPHLINT_TEST_DOTENV"))
}
