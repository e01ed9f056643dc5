package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/ir"
)

func plan(checks ...ir.Check) *ir.ValidationPlan {
	return &ir.ValidationPlan{Checks: checks, Mapping: ir.NewMapping()}
}

func meta(id, label string) ir.Meta {
	return ir.Meta{ID: id, TargetLabel: label, Severity: ir.SeverityViolation}
}

func runCheck(t *testing.T, g *MemoryGraph, c ir.Check) []map[string]any {
	t.Helper()
	g.Register(plan(c))
	q, err := backend.New(backend.Cypher).CompileCheck(c)
	require.NoError(t, err)
	rows, err := g.Run(context.Background(), q)
	require.NoError(t, err)
	return rows
}

func TestCountQueries(t *testing.T) {
	g := NewMemoryGraph().
		AddNode("a", []string{"Odd Label"}, map[string]any{"x": 1}).
		AddNode("b", []string{"Odd Label"}, map[string]any{"x": nil}).
		AddNode("c", []string{"Other"}, nil)
	b := backend.New(backend.GQL)

	rows, err := g.Run(context.Background(), b.CountQuery("Odd Label"))
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"cnt": int64(2)}}, rows)

	// A null property is absent.
	rows, err = g.Run(context.Background(), b.PropertyCountQuery("Odd Label", "x"))
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"cnt": int64(1)}}, rows)
}

func TestQuotedCheckID(t *testing.T) {
	g := NewMemoryGraph().AddNode("a", []string{"X"}, nil)
	rows := runCheck(t, g, &ir.PropertyExists{Meta: meta(`x-it's-exists`, "X"), Property: "p"})
	require.Len(t, rows, 1)
	assert.Equal(t, `x-it's-exists`, rows[0]["check_id"])
	assert.True(t, g.RanCheck(`x-it's-exists`))
}

func TestUnknownQuery(t *testing.T) {
	_, err := NewMemoryGraph().Run(context.Background(), "RETURN 1")
	assert.ErrorContains(t, err, "unrecognised query")

	_, err = NewMemoryGraph().Run(context.Background(), "MATCH (n) RETURN 'nope' AS check_id")
	assert.ErrorContains(t, err, `no registered check "nope"`)
}

func TestPatternIsWholeString(t *testing.T) {
	g := NewMemoryGraph().
		AddNode("a", []string{"P"}, map[string]any{"code": "ab12"}).
		AddNode("b", []string{"P"}, map[string]any{"code": "xAB12"}).
		AddNode("c", []string{"P"}, map[string]any{"code": 7})
	rows := runCheck(t, g, &ir.PropertyPattern{Meta: meta("p-code-pattern", "P"), Property: "code", Pattern: `[A-Z]{2}\d+`, Flags: "i"})
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0]["node_id"])
}

func TestEndpointAndIncoming(t *testing.T) {
	g := NewMemoryGraph().
		AddNode("m", []string{"Movie"}, nil).
		AddNode("p", []string{"Person"}, nil).
		AddNode("g", []string{"Genre"}, nil)
	require.NoError(t, g.AddRel("r1", "DIRECTED", "p", "m"))
	require.NoError(t, g.AddRel("r2", "DIRECTED", "g", "m"))

	rel := ir.RelationshipTarget{Type: "DIRECTED", Direction: ir.Incoming, TargetLabel: "Person"}
	rows := runCheck(t, g, &ir.RelationshipEndpoint{Meta: meta("movie-directed-endpoint", "Movie"), Relationship: rel})
	require.Len(t, rows, 1)
	assert.Equal(t, "r2", rows[0]["rel_id"])

	rows = runCheck(t, g, &ir.RelationshipCardinality{Meta: meta("movie-directed-cardinality", "Movie"), Relationship: rel, MinCount: 2})
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["actual_count"])
}

func TestLogicalIsNullSafe(t *testing.T) {
	g := NewMemoryGraph().
		AddNode("banned", []string{"C"}, map[string]any{"status": "banned"}).
		AddNode("ok", []string{"C"}, map[string]any{"status": "active"}).
		AddNode("none", []string{"C"}, nil)
	rows := runCheck(t, g, &ir.Logical{
		Meta: meta("c-logical-not", "C"),
		Op:   ir.OpNot,
		SubChecks: []ir.Check{
			&ir.PropertyValueIn{Meta: meta("c-status-hasvalue", "C"), Property: "status", AllowedValues: []ir.Value{ir.String("banned")}},
		},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "banned", rows[0]["node_id"])
}

func TestNotNeedsEverySubCheck(t *testing.T) {
	g := NewMemoryGraph().
		AddNode("both", []string{"C"}, map[string]any{"email": "a@example.org", "banned": true}).
		AddNode("email", []string{"C"}, map[string]any{"email": "b@example.org"}).
		AddNode("banned", []string{"C"}, map[string]any{"banned": true})
	rows := runCheck(t, g, &ir.Logical{
		Meta: meta("c-logical-not", "C"),
		Op:   ir.OpNot,
		SubChecks: []ir.Check{
			&ir.PropertyExists{Meta: meta("c-email-inner-exists", "C"), Property: "email"},
			&ir.PropertyValueIn{Meta: meta("c-banned-inner-hasvalue", "C"), Property: "banned", AllowedValues: []ir.Value{ir.Bool(true)}},
		},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, "both", rows[0]["node_id"])
}

func TestTemporalTypes(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g := NewMemoryGraph().
		AddNode("zoned", []string{"E"}, map[string]any{"at": at}).
		AddNode("local", []string{"E"}, map[string]any{"at": dbtype.LocalDateTime(at)}).
		AddNode("date", []string{"E"}, map[string]any{"at": dbtype.Date(at)}).
		AddNode("text", []string{"E"}, map[string]any{"at": "2026-01-02"})

	rows := runCheck(t, g, &ir.PropertyType{Meta: meta("e-at-type", "E"), Property: "at", ExpectedType: "datetime"})
	require.Len(t, rows, 2)
	assert.Equal(t, "date", rows[0]["node_id"])
	assert.Equal(t, "text", rows[1]["node_id"])

	rows = runCheck(t, g, &ir.PropertyType{Meta: meta("e-at-date-type", "E"), Property: "at", ExpectedType: "date"})
	require.Len(t, rows, 3)
	assert.Equal(t, "zoned", rows[0]["node_id"])
	assert.Equal(t, "local", rows[1]["node_id"])
	assert.Equal(t, "text", rows[2]["node_id"])
}

func TestUndeclaredLabelsOneRowEach(t *testing.T) {
	g := NewMemoryGraph().
		AddNode("m", []string{"Movie"}, nil).
		AddNode("c1", []string{"C"}, nil).
		AddNode("c2", []string{"C"}, nil).
		AddNode("d1", []string{"D"}, nil)
	rows := runCheck(t, g, &ir.UndeclaredLabels{Meta: meta("strict-undeclared-labels", "*"), AllowedLabels: []string{"Movie"}})
	require.Len(t, rows, 2)
	assert.Equal(t, "c1", rows[0]["node_id"])
	assert.Equal(t, "C", rows[0]["undeclared_label"])
	assert.Equal(t, "d1", rows[1]["node_id"])
	assert.Equal(t, "D", rows[1]["undeclared_label"])
}

func TestUndeclaredProperties(t *testing.T) {
	g := NewMemoryGraph().AddNode("a", []string{"M"}, map[string]any{"title": "x", "zeta": 1, "alpha": 2})
	rows := runCheck(t, g, &ir.UndeclaredProperties{Meta: meta("strict-m-undeclared-props", "M"), AllowedProperties: []string{"title"}})
	require.Len(t, rows, 2)
	assert.Equal(t, "alpha", rows[0]["undeclared_property"])
	assert.Equal(t, "zeta", rows[1]["undeclared_property"])
}

func TestFromFixture(t *testing.T) {
	var f Fixture
	require.NoError(t, yaml.Unmarshal([]byte(`
nodes:
  - id: m1
    labels: [Movie]
    properties: {title: Heat, released: 1995}
  - id: p1
    labels: [Person]
relationships:
  - {type: HAS_DIRECTOR, from: m1, to: p1}
`), &f))
	g, err := FromFixture(f)
	require.NoError(t, err)

	rows := runCheck(t, g, &ir.RelationshipCardinality{
		Meta:         meta("movie-has_director-cardinality", "Movie"),
		Relationship: ir.RelationshipTarget{Type: "HAS_DIRECTOR", Direction: ir.Outgoing, TargetLabel: "Person"},
		MinCount:     2,
	})
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["actual_count"])

	_, err = FromFixture(Fixture{Relationships: []Rel{{Type: "X", From: "a", To: "b"}}})
	assert.ErrorContains(t, err, `relationship r1: unknown source node "a"`)
}
