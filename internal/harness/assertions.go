package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/graphlint/internal/engine"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Check    string
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s %s\n", e.Type, e.Check)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// EvaluateExpectations compares a report with the scenario's expected
// outcome and assertions, returning one message per mismatch.
func EvaluateExpectations(r *engine.Report, s *Scenario) []string {
	var errs []string
	if r.Conforms != s.Expect.Conforms {
		errs = append(errs, fmt.Sprintf("conforms = %t, expected %t", r.Conforms, s.Expect.Conforms))
	}
	if s.Expect.Summary != nil && r.Summary != *s.Expect.Summary {
		errs = append(errs, fmt.Sprintf("summary = %+v, expected %+v", r.Summary, *s.Expect.Summary))
	}
	for _, a := range s.Assertions {
		if err := evaluateAssertion(r, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(r *engine.Report, a Assertion) error {
	res, ok := r.Result(a.Check)
	if !ok {
		return &AssertionError{Type: a.Type, Check: a.Check, Expected: "check in report", Actual: "no such check"}
	}
	actual := describe(res)
	fail := func(expected string) error {
		return &AssertionError{Type: a.Type, Check: a.Check, Expected: expected, Actual: actual}
	}

	switch a.Type {
	case AssertCheckPassed:
		if !res.Passed {
			return fail("passed")
		}
	case AssertCheckVacuous:
		if !res.Vacuous {
			return fail("vacuous")
		}
	case AssertCheckError:
		if res.Error == "" {
			return fail("query error")
		}
	case AssertCheckFailed:
		if !res.Failed() || res.Error != "" {
			return fail("violations")
		}
		if a.Count != nil && res.ViolationCount != *a.Count {
			return fail(fmt.Sprintf("%d violation(s)", *a.Count))
		}
		ids := make([]string, len(res.ViolatingNodes))
		for i, n := range res.ViolatingNodes {
			ids[i] = n.NodeID
		}
		for _, want := range a.Nodes {
			if !slices.Contains(ids, want) {
				return fail(fmt.Sprintf("violating node %s among %v", want, ids))
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func describe(res engine.CheckResult) string {
	switch {
	case res.Vacuous:
		return "vacuous"
	case res.Error != "":
		return "error: " + res.Error
	case res.Passed:
		return "passed"
	}
	return fmt.Sprintf("%d violation(s)", res.ViolationCount)
}
