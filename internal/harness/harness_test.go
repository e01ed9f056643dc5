package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result := RunWithGolden(t, s)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunReportsUnmetExpectations(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/missing_title.yaml")
	require.NoError(t, err)

	s.Expect.Conforms = true
	s.Expect.Summary = nil
	s.Assertions = []Assertion{
		{Type: AssertCheckPassed, Check: "movie-title-exists"},
		{Type: AssertCheckVacuous, Check: "movie-title-type"},
		{Type: AssertCheckFailed, Check: "movie-title-exists", Nodes: []string{"m1"}},
		{Type: AssertCheckError, Check: "movie-title-exists"},
		{Type: AssertCheckPassed, Check: "no-such-check"},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Equal(t, "conforms = false, expected true", result.Errors[0])
	assert.Contains(t, result.Errors[1], "Expected: passed")
	assert.Contains(t, result.Errors[1], "Actual: 1 violation(s)")
	assert.Contains(t, result.Errors[2], "Actual: passed")
	assert.Contains(t, result.Errors[3], "violating node m1 among [m2]")
	assert.Contains(t, result.Errors[4], "Expected: query error")
	assert.Contains(t, result.Errors[5], "no such check")
}

func TestRunStoresReport(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/two_directors.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.NotNil(t, result.Report)
	assert.Equal(t, "two_directors-run", result.Report.RunID)
	assert.True(t, ScenarioTime.Equal(result.Report.GeneratedAt))
	assert.NotEmpty(t, result.Report.Fingerprint)

	res, ok := result.Report.Result("movie-has_director-cardinality")
	require.True(t, ok)
	require.Len(t, res.ViolatingNodes, 1)
	// Numbers come back from the stored JSON as float64.
	assert.Equal(t, float64(2), res.ViolatingNodes[0].Extra["actual_count"])
}
