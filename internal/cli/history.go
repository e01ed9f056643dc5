package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/graphlint/internal/config"
	"github.com/roach88/graphlint/internal/engine"
	"github.com/roach88/graphlint/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Limit int
	Run   string // show one stored report
	Check string // show one check across runs
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded validation runs",
		Long: `Read the report history written by validate --history.

Without flags, lists the most recent runs. --run prints one stored
report; --check shows how a single check fared across runs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "history database (default: history_db from config)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "print the report of this run")
	cmd.Flags().StringVar(&opts.Check, "check", "", "show outcomes of this check id")
	cmd.MarkFlagsMutuallyExclusive("run", "check")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	path := opts.DB
	if path == "" {
		cfg, err := config.Load("")
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfig, "configuration", err)
		}
		path = cfg.HistoryDB
	}
	if path == "" {
		return f.Fail(ExitCommandError, ErrCodeConfig, "no history database: pass --db or set history_db", nil)
	}

	s, err := store.Open(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeHistory, "opening history", err)
	}
	defer s.Close()

	switch {
	case opts.Run != "":
		report, err := s.ReadReport(ctx, opts.Run)
		if errors.Is(err, store.ErrRunNotFound) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "run "+opts.Run+" not found", nil)
		}
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeHistory, "reading report", err)
		}
		return f.Success(report, func(w io.Writer) error {
			return report.WriteText(w, &engine.TextOptions{NoColor: opts.NoColor})
		})

	case opts.Check != "":
		outcomes, err := s.CheckHistory(ctx, opts.Check)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeHistory, "reading check history", err)
		}
		return f.Success(outcomes, func(w io.Writer) error {
			return writeCheckHistory(w, opts.Check, outcomes)
		})
	}

	runs, err := s.ListRuns(ctx, opts.Limit)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeHistory, "listing runs", err)
	}
	return f.Success(runs, func(w io.Writer) error {
		return writeRuns(w, runs)
	})
}

func writeRuns(w io.Writer, runs []store.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}
	for _, r := range runs {
		verdict := "conforms"
		if !r.Conforms {
			verdict = "FAILS"
		}
		fmt.Fprintf(w, "%s  %s  %-8s  %d/%d passed  %d violations  %s (%s)\n",
			r.RunID,
			r.GeneratedAt.Format(time.RFC3339),
			verdict,
			r.Summary.ChecksPassed,
			r.Summary.ChecksTotal,
			r.Summary.Violations,
			r.SchemaSource,
			r.Backend)
	}
	return nil
}

func writeCheckHistory(w io.Writer, checkID string, outcomes []store.CheckOutcome) error {
	if len(outcomes) == 0 {
		_, err := fmt.Fprintf(w, "no outcomes recorded for %s\n", checkID)
		return err
	}
	fmt.Fprintln(w, checkID)
	for _, o := range outcomes {
		status := "pass"
		switch {
		case o.Vacuous:
			status = "vacuous"
		case o.Error != "":
			status = "error"
		case o.Failed():
			status = fmt.Sprintf("fail (%d)", o.ViolationCount)
		}
		fmt.Fprintf(w, "  %s  %s  %s\n", o.GeneratedAt.Format(time.RFC3339), o.RunID, status)
	}
	return nil
}
