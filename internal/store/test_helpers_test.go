package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/graphlint/internal/engine"
	"github.com/roach88/graphlint/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestReport builds a two-check report: one pass, one failure
// with a single violating node.
func createTestReport(runID string, at time.Time) *engine.Report {
	return &engine.Report{
		RunID:        runID,
		Conforms:     false,
		GeneratedAt:  at,
		SchemaSource: "movies.shex",
		Backend:      "cypher",
		Fingerprint:  "fp-1",
		Summary: engine.Summary{
			Violations:   1,
			ChecksPassed: 1,
			ChecksTotal:  2,
		},
		Results: []engine.CheckResult{
			{
				CheckID:        "movie-title-exists",
				CheckType:      ir.KindPropertyExists,
				Severity:       ir.SeverityViolation,
				Message:        "Movie node missing required 'title' property",
				TargetLabel:    "Movie",
				Passed:         false,
				ViolationCount: 1,
				ViolatingNodes: []engine.ViolatingNode{
					{NodeID: "m2", Labels: []string{"Movie"}, Extra: map[string]any{}},
				},
				Query: "MATCH (n:Movie) ...",
			},
			{
				CheckID:        "movie-title-type",
				CheckType:      ir.KindPropertyType,
				Severity:       ir.SeverityViolation,
				Message:        "Movie.title must be string",
				TargetLabel:    "Movie",
				Passed:         true,
				ViolatingNodes: []engine.ViolatingNode{},
				Query:          "MATCH (n:Movie) ...",
			},
		},
	}
}
