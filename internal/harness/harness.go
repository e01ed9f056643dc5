package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/compiler"
	"github.com/roach88/graphlint/internal/config"
	"github.com/roach88/graphlint/internal/engine"
	"github.com/roach88/graphlint/internal/ir"
	"github.com/roach88/graphlint/internal/store"
	"github.com/roach88/graphlint/internal/testutil"
)

// ScenarioTime is the generation time of every scenario report.
var ScenarioTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory graph and history store.
// Errors are returned only when the scenario cannot be executed at all;
// unmet expectations are recorded in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	plan, err := compilePlan(scenario)
	if err != nil {
		return nil, err
	}

	name := scenario.Backend
	if name == "" {
		name = "cypher"
	}
	b, err := backend.Get(name)
	if err != nil {
		return nil, err
	}

	g, err := testutil.FromFixture(scenario.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	g.Register(plan)
	for id, msg := range scenario.FailChecks {
		g.FailCheck(id, errors.New(msg))
	}

	report, err := engine.ExecutePlan(ctx, plan, b, g,
		engine.WithClock(engine.FixedClock{At: ScenarioTime}),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(scenario.Name+"-run")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute plan: %w", err)
	}

	stored, err := roundTrip(ctx, report)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Report = stored
	for _, msg := range EvaluateExpectations(stored, scenario) {
		result.AddError(msg)
	}
	return result, nil
}

func compilePlan(s *Scenario) (*ir.ValidationPlan, error) {
	data, err := os.ReadFile(s.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	format, err := compiler.ParseFormat(s.Format)
	if err != nil {
		return nil, err
	}
	var mapping *ir.Mapping
	if s.Mapping != "" {
		if mapping, err = config.LoadMapping(s.Mapping); err != nil {
			return nil, fmt.Errorf("failed to load mapping: %w", err)
		}
	}
	return compiler.ParseSchema(string(data), compiler.Options{
		Format:  format,
		Mapping: mapping,
		Source:  filepath.Base(s.Schema),
		Strict:  s.Strict,
	})
}

// roundTrip records report in a fresh in-memory history store and reads
// it back.
func roundTrip(ctx context.Context, report *engine.Report) (*engine.Report, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.WriteReport(ctx, report); err != nil {
		return nil, err
	}
	return st.ReadReport(ctx, report.RunID)
}
