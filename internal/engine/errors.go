package engine

import (
	"errors"
	"fmt"
)

// RunError is a failure that aborts a whole run. Failures of a single
// check's query are not RunErrors: they are recorded on the check's
// result and the run continues.
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// CheckID identifies the affected check, when there is one.
	CheckID string

	Err error
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeCompileFailed indicates a check the backend cannot translate.
	ErrCodeCompileFailed RunErrorCode = "COMPILE_FAILED"

	// ErrCodePreflightFailed indicates a population count query failed.
	ErrCodePreflightFailed RunErrorCode = "PREFLIGHT_FAILED"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.CheckID != "" {
		msg = fmt.Sprintf("%s: %s (check=%s)", e.Code, e.Message, e.CheckID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error { return e.Err }

// IsCompileError reports whether err is (or wraps) a compile failure.
func IsCompileError(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeCompileFailed
	}
	return false
}

// IsPreflightError reports whether err is (or wraps) a pre-flight failure.
func IsPreflightError(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodePreflightFailed
	}
	return false
}

func compileError(checkID string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeCompileFailed,
		Message: "cannot compile check",
		CheckID: checkID,
		Err:     err,
	}
}

func preflightError(what string, err error) *RunError {
	return &RunError{
		Code:    ErrCodePreflightFailed,
		Message: "population count for " + what,
		Err:     err,
	}
}
