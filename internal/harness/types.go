package harness

import "github.com/roach88/graphlint/internal/engine"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when the report matches every expectation.
	Pass bool `json:"pass"`

	// Report is the report as read back from the history store.
	Report *engine.Report `json:"report"`

	// Errors contains one message per unmet expectation.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
