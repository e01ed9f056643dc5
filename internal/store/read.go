package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/graphlint/internal/engine"
	"github.com/roach88/graphlint/internal/ir"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is one row of the run history.
type RunSummary struct {
	RunID        string         `json:"run_id" yaml:"run_id"`
	GeneratedAt  time.Time      `json:"generated_at" yaml:"generated_at"`
	SchemaSource string         `json:"schema_source" yaml:"schema_source"`
	Backend      string         `json:"backend" yaml:"backend"`
	Target       string         `json:"target" yaml:"target"`
	Fingerprint  string         `json:"plan_fingerprint" yaml:"plan_fingerprint"`
	Conforms     bool           `json:"conforms" yaml:"conforms"`
	Summary      engine.Summary `json:"summary" yaml:"summary"`
}

// CheckOutcome is one check's result in one run.
type CheckOutcome struct {
	RunID          string      `json:"run_id" yaml:"run_id"`
	GeneratedAt    time.Time   `json:"generated_at" yaml:"generated_at"`
	CheckType      ir.Kind     `json:"check_type" yaml:"check_type"`
	Severity       ir.Severity `json:"severity" yaml:"severity"`
	Passed         bool        `json:"passed" yaml:"passed"`
	Vacuous        bool        `json:"vacuous" yaml:"vacuous"`
	ViolationCount int         `json:"violation_count" yaml:"violation_count"`
	Error          string      `json:"error" yaml:"error"`
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, generated_at, schema_source, backend, target, plan_fingerprint, conforms,
		       violations, warnings, info, checks_passed, checks_vacuous, checks_total
		FROM runs
		ORDER BY generated_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			rs          RunSummary
			generatedAt string
		)
		err := rows.Scan(
			&rs.RunID, &generatedAt, &rs.SchemaSource, &rs.Backend, &rs.Target,
			&rs.Fingerprint, &rs.Conforms,
			&rs.Summary.Violations, &rs.Summary.Warnings, &rs.Summary.Info,
			&rs.Summary.ChecksPassed, &rs.Summary.ChecksVacuous, &rs.Summary.ChecksTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if rs.GeneratedAt, err = parseTime(generatedAt); err != nil {
			return nil, fmt.Errorf("run %s: generated_at: %w", rs.RunID, err)
		}
		runs = append(runs, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadReport returns the stored report for a run.
// Returns ErrRunNotFound if no such run exists.
func (s *Store) ReadReport(ctx context.Context, runID string) (*engine.Report, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE id = ?`, runID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read report %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", runID, err)
	}

	var r engine.Report
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("read report %s: decode: %w", runID, err)
	}
	return &r, nil
}

// CheckHistory returns every recorded outcome of a check, newest first.
func (s *Store) CheckHistory(ctx context.Context, checkID string) ([]CheckOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.run_id, r.generated_at, c.check_type, c.severity, c.passed, c.vacuous,
		       c.violation_count, c.error
		FROM check_results c
		JOIN runs r ON c.run_id = r.id
		WHERE c.check_id = ?
		ORDER BY r.generated_at DESC, c.run_id COLLATE BINARY DESC
	`, checkID)
	if err != nil {
		return nil, fmt.Errorf("query check history: %w", err)
	}
	defer rows.Close()

	out := []CheckOutcome{}
	for rows.Next() {
		var (
			o           CheckOutcome
			generatedAt string
			kind, sev   string
		)
		if err := rows.Scan(&o.RunID, &generatedAt, &kind, &sev, &o.Passed, &o.Vacuous, &o.ViolationCount, &o.Error); err != nil {
			return nil, fmt.Errorf("scan check outcome: %w", err)
		}
		if o.GeneratedAt, err = parseTime(generatedAt); err != nil {
			return nil, fmt.Errorf("run %s: generated_at: %w", o.RunID, err)
		}
		o.CheckType = ir.Kind(kind)
		o.Severity = ir.Severity(sev)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check history: %w", err)
	}
	return out, nil
}

// Failed reports whether the check ran and did not pass.
func (o CheckOutcome) Failed() bool { return !o.Passed && !o.Vacuous }
