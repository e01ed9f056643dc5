package engine

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/ir"
)

func sampleReport() *Report {
	nodes := make([]ViolatingNode, 7)
	for i := range nodes {
		nodes[i] = ViolatingNode{
			NodeID: string(rune('a' + i)),
			Labels: []string{"Movie"},
			Extra:  map[string]any{},
		}
	}
	nodes[0].Extra = map[string]any{"actual_count": int64(2), "actual_value": "x"}

	return &Report{
		RunID:        "run-1",
		Conforms:     false,
		GeneratedAt:  fixedTime,
		SchemaSource: "movies.shex",
		Backend:      "cypher",
		Summary:      Summary{Violations: 1, ChecksPassed: 1, ChecksVacuous: 1, ChecksTotal: 3},
		Results: []CheckResult{
			{
				CheckID:        "movie-title-exists",
				CheckType:      ir.KindPropertyExists,
				Severity:       ir.SeverityViolation,
				Message:        "Movie node missing required 'title' property",
				TargetLabel:    "Movie",
				ViolationCount: 7,
				ViolatingNodes: nodes,
			},
			{
				CheckID:        "movie-title-type",
				CheckType:      ir.KindPropertyType,
				Severity:       ir.SeverityViolation,
				TargetLabel:    "Movie",
				Passed:         true,
				ViolatingNodes: []ViolatingNode{},
			},
			{
				CheckID:        "movie-tagline-type",
				CheckType:      ir.KindPropertyType,
				Severity:       ir.SeverityViolation,
				TargetLabel:    "Movie",
				Vacuous:        true,
				ViolatingNodes: []ViolatingNode{},
			},
		},
	}
}

func TestWriteText(t *testing.T) {
	var b strings.Builder
	require.NoError(t, sampleReport().WriteText(&b, &TextOptions{NoColor: true}))

	assert.Equal(t, `graphlint validation report
  schema: movies.shex
  backend: cypher
  generated: 2026-01-02T03:04:05Z
  run: run-1

  ✗ DOES NOT CONFORM
  1/3 checks passed  |  1 violations  0 warnings  0 info  1 skipped (no data)

  VIOLATIONS:

  ✗ [VIOLATION] movie-title-exists
    Movie node missing required 'title' property
    7 node(s) affected
      → a [Movie]  actual_count=2  actual_value=x
      → b [Movie]
      → c [Movie]
      → d [Movie]
      → e [Movie]
      ... and 2 more

`, b.String())
}

func TestWriteTextConforming(t *testing.T) {
	r := &Report{Conforms: true, GeneratedAt: fixedTime, SchemaSource: "s", Backend: "gql", Target: "bolt://db:7687"}
	var b strings.Builder
	require.NoError(t, r.WriteText(&b, nil))

	out := b.String()
	assert.Contains(t, out, "  target: bolt://db:7687\n")
	assert.Contains(t, out, "✓ CONFORMS")
	assert.NotContains(t, out, "VIOLATIONS:")
	assert.NotContains(t, out, "skipped")
}

func TestReportJSON(t *testing.T) {
	data, err := sampleReport().JSON()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "run-1", doc["run_id"])
	assert.Equal(t, false, doc["conforms"])
	assert.Equal(t, "2026-01-02T03:04:05Z", doc["generated_at"])
	assert.NotContains(t, doc, "target")

	summary := doc["summary"].(map[string]any)
	assert.Equal(t, float64(3), summary["checks_total"])
	assert.Equal(t, float64(1), summary["checks_vacuous"])

	results := doc["results"].([]any)
	first := results[0].(map[string]any)
	assert.Equal(t, "property_exists", first["check_type"])
	assert.Equal(t, float64(7), first["violation_count"])

	// Extra columns sit beside node_id and labels.
	node := first["violating_nodes"].([]any)[0].(map[string]any)
	assert.Equal(t, "a", node["node_id"])
	assert.Equal(t, []any{"Movie"}, node["labels"])
	assert.Equal(t, float64(2), node["actual_count"])

	passed := results[1].(map[string]any)
	assert.Equal(t, []any{}, passed["violating_nodes"])
}

func TestReportYAML(t *testing.T) {
	data, err := sampleReport().YAML()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "movies.shex", doc["schema_source"])
	results := doc["results"].([]any)
	node := results[0].(map[string]any)["violating_nodes"].([]any)[0].(map[string]any)
	assert.Equal(t, "x", node["actual_value"])
}

func TestViolatingNodeFromRow(t *testing.T) {
	vn := violatingNode(map[string]any{
		"node_id":      "4:abc:1",
		"labels":       []any{"Movie", "Film"},
		"check_id":     "movie-title-type",
		"actual_value": 42,
	})
	assert.Equal(t, "4:abc:1", vn.NodeID)
	assert.Equal(t, []string{"Movie", "Film"}, vn.Labels)
	assert.Equal(t, map[string]any{"actual_value": 42}, vn.Extra)

	rel := violatingNode(map[string]any{
		"rel_id":        "5:abc:9",
		"rel_type":      "HAS_DIRECTOR",
		"source_labels": []string{"Person"},
		"target_labels": []string{"Movie"},
		"check_id":      "movie-has_director-endpoint",
	})
	assert.Equal(t, "5:abc:9", rel.NodeID)
	assert.Equal(t, []string{"Person"}, rel.Labels)
	assert.Equal(t, map[string]any{"rel_type": "HAS_DIRECTOR"}, rel.Extra)

	assert.Equal(t, "unknown", violatingNode(map[string]any{}).NodeID)
}

func TestViolatingNodeTemporalValues(t *testing.T) {
	released := time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("", 3600))
	vn := violatingNode(map[string]any{
		"node_id":  "m1",
		"labels":   []any{"Movie"},
		"released": dbtype.Date(released),
		"updated":  at,
		"seen":     dbtype.LocalDateTime(time.Date(2026, 1, 2, 3, 4, 5, 500, time.UTC)),
		"history":  []any{dbtype.Date(released), int64(3)},
	})
	assert.Equal(t, "1999-03-31", vn.Extra["released"])
	assert.Equal(t, "2026-01-02T03:04:05+01:00", vn.Extra["updated"])
	assert.Equal(t, "2026-01-02T03:04:05.0000005", vn.Extra["seen"])
	assert.Equal(t, []any{"1999-03-31", int64(3)}, vn.Extra["history"])

	data, err := json.Marshal(vn)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"released":"1999-03-31"`)
}

func TestDryRun(t *testing.T) {
	plan := moviesPlan(t, false)
	out, err := DryRun(plan, backend.New(backend.Cypher))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "-- [VIOLATION] movie-title-exists\n"+
		"-- Movie node missing required 'title' property\n"+
		"MATCH (n:Movie)\n"))
	assert.Equal(t, len(plan.Checks), strings.Count(out, "\n-- [")+1)
	assert.Contains(t, out, "// Check movie-in_genre-cardinality: no constraint (0..*)")
}

func TestCompilePlanMarksNoOps(t *testing.T) {
	plan := moviesPlan(t, false)
	compiled, err := CompilePlan(plan, backend.New(backend.GQL))
	require.NoError(t, err)
	require.Len(t, compiled, len(plan.Checks))

	var noOps []string
	for _, cc := range compiled {
		if cc.NoOp() {
			noOps = append(noOps, cc.Check.Base().ID)
		}
	}
	assert.Equal(t, []string{"movie-in_genre-cardinality"}, noOps)
}
