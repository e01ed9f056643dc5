package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/graphlint/internal/engine"
)

// RunWithGolden executes a scenario, fails t on unmet expectations and
// compares the uncoloured text report against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	AssertGolden(t, scenario.Name, result.Report)
	return result
}

// AssertGolden compares a report's text rendering against a golden file.
func AssertGolden(t *testing.T, name string, report *engine.Report) {
	t.Helper()

	var buf bytes.Buffer
	if err := report.WriteText(&buf, &engine.TextOptions{NoColor: true}); err != nil {
		t.Fatalf("render report: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}
