package engine

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/compiler"
	"github.com/roach88/graphlint/internal/ir"
	"github.com/roach88/graphlint/internal/testutil"
)

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func moviesPlan(t *testing.T, strict bool) *ir.ValidationPlan {
	t.Helper()
	data, err := os.ReadFile("../../testdata/movies.shex")
	require.NoError(t, err)
	plan, err := compiler.ParseSchema(string(data), compiler.Options{
		Source: "movies.shex",
		Strict: strict,
	})
	require.NoError(t, err)
	return plan
}

// moviesGraph conforms to movies.shex. Nothing has a tagline.
func moviesGraph(t *testing.T) *testutil.MemoryGraph {
	t.Helper()
	g := testutil.NewMemoryGraph().
		AddNode("m1", []string{"Movie"}, map[string]any{"title": "The Matrix", "released": 1999}).
		AddNode("p1", []string{"Person"}, map[string]any{"name": "Keanu Reeves", "born": 1964}).
		AddNode("p2", []string{"Person"}, map[string]any{"name": "Lana Wachowski"}).
		AddNode("g1", []string{"Genre"}, map[string]any{"name": "Science Fiction", "rating": "R"}).
		AddNode("r1", []string{"Review"}, map[string]any{"score": 90, "summary": "Dodge this."})
	require.NoError(t, g.AddRel("e1", "HAS_ACTOR", "m1", "p1"))
	require.NoError(t, g.AddRel("e2", "HAS_DIRECTOR", "m1", "p2"))
	require.NoError(t, g.AddRel("e3", "IN_GENRE", "m1", "g1"))
	require.NoError(t, g.AddRel("e4", "REVIEW_OF", "r1", "m1"))
	return g
}

func run(t *testing.T, plan *ir.ValidationPlan, g *testutil.MemoryGraph, opts ...Option) *Report {
	t.Helper()
	g.Register(plan)
	opts = append([]Option{
		WithClock(FixedClock{At: fixedTime}),
		WithRunIDGenerator(NewFixedGenerator("run-1")),
	}, opts...)
	report, err := ExecutePlan(context.Background(), plan, backend.New(backend.Cypher), g, opts...)
	require.NoError(t, err)
	return report
}

func result(t *testing.T, r *Report, id string) CheckResult {
	t.Helper()
	res, ok := r.Result(id)
	require.True(t, ok, "no result for %s", id)
	return res
}

func TestExecuteConformingGraph(t *testing.T) {
	plan := moviesPlan(t, false)
	report := run(t, plan, moviesGraph(t), WithTarget("bolt://localhost:7687"))

	assert.True(t, report.Conforms)
	assert.Equal(t, Summary{ChecksPassed: 20, ChecksVacuous: 1, ChecksTotal: 21}, report.Summary)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, fixedTime, report.GeneratedAt)
	assert.Equal(t, "movies.shex", report.SchemaSource)
	assert.Equal(t, "cypher", report.Backend)
	assert.Equal(t, "bolt://localhost:7687", report.Target)

	fp, err := plan.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp, report.Fingerprint)

	tagline := result(t, report, "movie-tagline-type")
	assert.True(t, tagline.Vacuous)
	assert.False(t, tagline.Passed)
}

func TestResultsKeepPlanOrder(t *testing.T) {
	plan := moviesPlan(t, false)
	sequential := run(t, plan, moviesGraph(t))
	parallel := run(t, plan, moviesGraph(t), WithConcurrency(8))

	require.Len(t, parallel.Results, len(plan.Checks))
	for i, c := range plan.Checks {
		assert.Equal(t, c.Base().ID, parallel.Results[i].CheckID)
	}
	assert.Equal(t, sequential.Summary, parallel.Summary)
}

func TestMissingRequiredProperty(t *testing.T) {
	g := moviesGraph(t).AddNode("m2", []string{"Movie"}, map[string]any{"released": 2003})
	require.NoError(t, g.AddRel("e5", "HAS_ACTOR", "m2", "p1"))
	require.NoError(t, g.AddRel("e6", "HAS_DIRECTOR", "m2", "p2"))

	report := run(t, moviesPlan(t, false), g)
	assert.False(t, report.Conforms)
	assert.Equal(t, 1, report.Summary.Violations)

	res := result(t, report, "movie-title-exists")
	assert.False(t, res.Passed)
	assert.Equal(t, ir.KindPropertyExists, res.CheckType)
	assert.Equal(t, ir.SeverityViolation, res.Severity)
	require.Equal(t, 1, res.ViolationCount)
	assert.Equal(t, "m2", res.ViolatingNodes[0].NodeID)
	assert.Equal(t, []string{"Movie"}, res.ViolatingNodes[0].Labels)

	// A missing title is not also a type violation.
	assert.True(t, result(t, report, "movie-title-type").Passed)
}

func TestOptionalEnumeratedValue(t *testing.T) {
	g := moviesGraph(t).
		AddNode("g2", []string{"Genre"}, map[string]any{"name": "Horror", "rating": "NC-18"}).
		AddNode("g3", []string{"Genre"}, map[string]any{"name": "Documentary"})

	report := run(t, moviesPlan(t, false), g)
	res := result(t, report, "genre-rating-values")
	require.Equal(t, 1, res.ViolationCount)
	assert.Equal(t, "g2", res.ViolatingNodes[0].NodeID)
	assert.Equal(t, "NC-18", res.ViolatingNodes[0].Extra["actual_value"])
}

func TestRelationshipCardinality(t *testing.T) {
	g := moviesGraph(t)
	require.NoError(t, g.AddRel("e5", "HAS_DIRECTOR", "m1", "p1"))

	report := run(t, moviesPlan(t, false), g)
	res := result(t, report, "movie-has_director-cardinality")
	require.Equal(t, 1, res.ViolationCount)
	assert.Equal(t, "m1", res.ViolatingNodes[0].NodeID)
	assert.Equal(t, int64(2), res.ViolatingNodes[0].Extra["actual_count"])
}

func contactPlan() *ir.ValidationPlan {
	meta := func(id string) ir.Meta {
		return ir.Meta{ID: id, Shape: "http://example.org/Contact", TargetLabel: "Contact", Severity: ir.SeverityViolation}
	}
	return &ir.ValidationPlan{
		SchemaSource: "contact",
		Shapes:       []string{"http://example.org/Contact"},
		Mapping:      ir.NewMapping(),
		Checks: []ir.Check{
			&ir.Logical{
				Meta: meta("contact-logical-xone"),
				Op:   ir.OpXone,
				SubChecks: []ir.Check{
					&ir.PropertyExists{Meta: meta("contact-email-exists"), Property: "email"},
					&ir.PropertyExists{Meta: meta("contact-phone-exists"), Property: "phone"},
				},
			},
		},
	}
}

func TestExactlyOneOf(t *testing.T) {
	g := testutil.NewMemoryGraph().
		AddNode("both", []string{"Contact"}, map[string]any{"email": "a@example.org", "phone": "555-0100"}).
		AddNode("email", []string{"Contact"}, map[string]any{"email": "b@example.org"}).
		AddNode("phone", []string{"Contact"}, map[string]any{"phone": "555-0101"}).
		AddNode("neither", []string{"Contact"}, nil)

	report := run(t, contactPlan(), g)
	res := result(t, report, "contact-logical-xone")
	require.Equal(t, 2, res.ViolationCount)
	assert.Equal(t, "both", res.ViolatingNodes[0].NodeID)
	assert.Equal(t, int64(2), res.ViolatingNodes[0].Extra["satisfied_count"])
	assert.Equal(t, "neither", res.ViolatingNodes[1].NodeID)
	assert.Equal(t, int64(0), res.ViolatingNodes[1].Extra["satisfied_count"])
}

func TestLogicalOperandsAreWhole(t *testing.T) {
	meta := func(id string) ir.Meta {
		return ir.Meta{ID: id, TargetLabel: "Contact", Severity: ir.SeverityViolation}
	}
	emailOperand := ir.Operand(meta("contact-logical-xone-operand-1"), []ir.Check{
		&ir.PropertyType{Meta: meta("contact-email-inner-type"), Property: "email", ExpectedType: "string"},
		&ir.PropertyExists{Meta: meta("contact-email-inner-exists"), Property: "email"},
	})
	bannedOperand := ir.Operand(meta("contact-logical-not-operand-1"), []ir.Check{
		&ir.PropertyExists{Meta: meta("contact-email-inner-exists"), Property: "email"},
		&ir.PropertyValueIn{Meta: meta("contact-banned-inner-hasvalue"), Property: "banned", AllowedValues: []ir.Value{ir.Bool(true)}, OnlyIfExists: true},
	})
	plan := &ir.ValidationPlan{
		SchemaSource: "contact",
		Mapping:      ir.NewMapping(),
		Checks: []ir.Check{
			&ir.Logical{
				Meta:      meta("contact-logical-xone"),
				Op:        ir.OpXone,
				SubChecks: []ir.Check{emailOperand, &ir.PropertyExists{Meta: meta("contact-phone-inner-exists"), Property: "phone"}},
			},
			&ir.Logical{
				Meta:      meta("contact-logical-not"),
				Op:        ir.OpNot,
				SubChecks: []ir.Check{bannedOperand},
			},
		},
	}
	g := testutil.NewMemoryGraph().
		AddNode("email", []string{"Contact"}, map[string]any{"email": "a@example.org"}).
		AddNode("bad-email", []string{"Contact"}, map[string]any{"email": 42}).
		AddNode("phone", []string{"Contact"}, map[string]any{"phone": "555-0100", "banned": true}).
		AddNode("banned", []string{"Contact"}, map[string]any{"email": "b@example.org", "banned": true})

	report := run(t, plan, g)

	xone := result(t, report, "contact-logical-xone")
	require.Equal(t, 1, xone.ViolationCount)
	assert.Equal(t, "bad-email", xone.ViolatingNodes[0].NodeID)
	assert.Equal(t, int64(0), xone.ViolatingNodes[0].Extra["satisfied_count"])

	not := result(t, report, "contact-logical-not")
	require.Equal(t, 1, not.ViolationCount)
	assert.Equal(t, "banned", not.ViolatingNodes[0].NodeID)
}

func TestStrictUndeclaredLabelsOneRowEach(t *testing.T) {
	g := moviesGraph(t).
		AddNode("s1", []string{"Studio"}, nil).
		AddNode("s2", []string{"Studio"}, nil).
		AddNode("a1", []string{"Award"}, nil)

	report := run(t, moviesPlan(t, true), g)
	res := result(t, report, "strict-undeclared-labels")
	require.Equal(t, 2, res.ViolationCount)
	assert.Equal(t, "a1", res.ViolatingNodes[0].NodeID)
	assert.Equal(t, "Award", res.ViolatingNodes[0].Extra["undeclared_label"])
	assert.Equal(t, "s1", res.ViolatingNodes[1].NodeID)
	assert.Equal(t, "Studio", res.ViolatingNodes[1].Extra["undeclared_label"])
}

func TestStrictUndeclaredLabel(t *testing.T) {
	g := moviesGraph(t).AddNode("s1", []string{"Studio"}, map[string]any{})

	report := run(t, moviesPlan(t, true), g)
	res := result(t, report, "strict-undeclared-labels")
	assert.Equal(t, ir.SeverityWarning, res.Severity)
	require.Equal(t, 1, res.ViolationCount)
	assert.Equal(t, []string{"Studio"}, res.ViolatingNodes[0].Labels)
	assert.Equal(t, "Studio", res.ViolatingNodes[0].Extra["undeclared_label"])

	// Warnings never affect conformance.
	assert.True(t, report.Conforms)
	assert.Equal(t, Summary{Warnings: 1, ChecksPassed: 29, ChecksVacuous: 1, ChecksTotal: 31}, report.Summary)
}

func TestEmptyLabelIsVacuous(t *testing.T) {
	g := testutil.NewMemoryGraph().
		AddNode("m1", []string{"Movie"}, map[string]any{"title": "Alien", "released": 1979}).
		AddNode("p1", []string{"Person"}, map[string]any{"name": "Ridley Scott"}).
		AddNode("g1", []string{"Genre"}, map[string]any{"name": "Horror"})
	require.NoError(t, g.AddRel("e1", "HAS_ACTOR", "m1", "p1"))
	require.NoError(t, g.AddRel("e2", "HAS_DIRECTOR", "m1", "p1"))

	plan := moviesPlan(t, false)
	report := run(t, plan, g)

	for _, id := range []string{
		"review-score-exists",
		"review-score-type",
		"review-score-range",
		"review-summary-type",
		"review-summary-strlen",
		"review-review_of-cardinality",
	} {
		res := result(t, report, id)
		assert.True(t, res.Vacuous, id)
		assert.False(t, res.Passed, id)
		assert.False(t, g.RanCheck(id), id)
	}

	// Property-level: no tagline, born or rating anywhere.
	for _, id := range []string{"movie-tagline-type", "person-born-type", "genre-rating-values"} {
		assert.True(t, result(t, report, id).Vacuous, id)
	}

	assert.True(t, report.Conforms)
	assert.Equal(t, Summary{ChecksPassed: 12, ChecksVacuous: 9, ChecksTotal: 21}, report.Summary)
}

func TestNoOpNeverExecuted(t *testing.T) {
	g := moviesGraph(t)
	report := run(t, moviesPlan(t, false), g)

	res := result(t, report, "movie-in_genre-cardinality")
	assert.True(t, res.Passed)
	assert.True(t, backend.IsNoOp(res.Query))
	assert.False(t, g.RanCheck("movie-in_genre-cardinality"))
	assert.True(t, g.RanCheck("movie-has_actor-cardinality"))
}

func TestPopulationCountsQueriedOnce(t *testing.T) {
	g := moviesGraph(t)
	run(t, moviesPlan(t, false), g)

	counts := make(map[string]int)
	for _, q := range g.Queries() {
		counts[q]++
	}
	b := backend.New(backend.Cypher)
	assert.Equal(t, 1, counts[b.CountQuery("Review")])
	assert.Equal(t, 1, counts[b.PropertyCountQuery("Review", "score")])
}

func TestQueryFailureIsRecorded(t *testing.T) {
	g := moviesGraph(t).FailCheck("strict-undeclared-labels", errors.New("connection reset"))

	report := run(t, moviesPlan(t, true), g)
	res := result(t, report, "strict-undeclared-labels")
	assert.False(t, res.Passed)
	assert.Equal(t, "connection reset", res.Error)
	assert.Equal(t, "Query execution failed: connection reset", res.Message)

	// Counted as a violation even though the check is a warning, and the
	// run carried on.
	assert.Equal(t, 1, report.Summary.Violations)
	assert.False(t, report.Conforms)
	assert.True(t, result(t, report, "strict-movie-empty").Passed)
}

type failingSession struct{}

func (failingSession) Run(context.Context, string) ([]map[string]any, error) {
	return nil, errors.New("database unavailable")
}

func TestPreflightFailureAbortsRun(t *testing.T) {
	_, err := ExecutePlan(context.Background(), moviesPlan(t, false), backend.New(backend.Cypher), failingSession{})
	require.Error(t, err)
	assert.True(t, IsPreflightError(err))
	assert.Contains(t, err.Error(), "database unavailable")
}

type rejectingBackend struct {
	*backend.Generator
}

func (b rejectingBackend) CompileCheck(c ir.Check) (string, error) {
	return "", &backend.UnsupportedKindError{Backend: "rejecting", Kind: c.Kind()}
}

func TestCompileFailureAbortsRun(t *testing.T) {
	g := moviesGraph(t)
	_, err := ExecutePlan(context.Background(), moviesPlan(t, false), rejectingBackend{backend.New(backend.Cypher)}, g)
	require.Error(t, err)
	assert.True(t, IsCompileError(err))

	var unsupported *backend.UnsupportedKindError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ir.KindPropertyExists, unsupported.Kind)
	assert.Empty(t, g.Queries())
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExecutePlan(ctx, moviesPlan(t, false), backend.New(backend.Cypher), moviesGraph(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGQLBackendAgrees(t *testing.T) {
	plan := moviesPlan(t, false)
	g := moviesGraph(t).AddNode("m2", []string{"Movie"}, map[string]any{"title": 42})
	g.Register(plan)

	cypher, err := ExecutePlan(context.Background(), plan, backend.New(backend.Cypher), g)
	require.NoError(t, err)
	gql, err := ExecutePlan(context.Background(), plan, backend.New(backend.GQL), g)
	require.NoError(t, err)

	assert.Equal(t, "gql", gql.Backend)
	assert.Equal(t, cypher.Summary, gql.Summary)
	assert.False(t, gql.Conforms)
}
