package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/graphlint/internal/engine"
)

// timeLayout sorts lexically in generation order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// WriteReport records a report and its per-check outcomes in a single
// transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same run
// twice is silently ignored.
func (s *Store) WriteReport(ctx context.Context, r *engine.Report) error {
	if r.RunID == "" {
		return fmt.Errorf("write report: missing run id")
	}
	doc, err := r.JSON()
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write report: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, generated_at, schema_source, backend, target, plan_fingerprint, conforms,
		 violations, warnings, info, checks_passed, checks_vacuous, checks_total, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.RunID,
		r.GeneratedAt.UTC().Format(timeLayout),
		r.SchemaSource,
		r.Backend,
		r.Target,
		r.Fingerprint,
		r.Conforms,
		r.Summary.Violations,
		r.Summary.Warnings,
		r.Summary.Info,
		r.Summary.ChecksPassed,
		r.Summary.ChecksVacuous,
		r.Summary.ChecksTotal,
		string(doc),
	)
	if err != nil {
		return fmt.Errorf("write report: insert run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write report: rows affected: %w", err)
	}
	if n == 0 {
		return nil
	}

	for i, cr := range r.Results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO check_results
			(run_id, position, check_id, check_type, severity, passed, vacuous, violation_count, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.RunID,
			i,
			cr.CheckID,
			string(cr.CheckType),
			string(cr.Severity),
			cr.Passed,
			cr.Vacuous,
			cr.ViolationCount,
			cr.Error,
		)
		if err != nil {
			return fmt.Errorf("write report: insert check %s: %w", cr.CheckID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write report: commit: %w", err)
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
