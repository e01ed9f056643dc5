package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/ir"
)

// Session runs one read query and returns its rows as column→value maps,
// in result order. Implemented by graph.Client and testutil.MemoryGraph.
type Session interface {
	Run(ctx context.Context, query string) ([]map[string]any, error)
}

// DefaultConcurrency executes checks one at a time, in plan order.
const DefaultConcurrency = 1

// Runner executes validation plans with one backend.
//
// Thread-safety: a Runner holds no per-run state and may execute several
// plans concurrently, as long as the Session passed to each allows it.
type Runner struct {
	backend     backend.Backend
	concurrency int
	clock       Clock
	runIDs      RunIDGenerator
	target      string
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds the number of check queries in flight. Values
// below one mean one.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// WithClock sets the clock stamping GeneratedAt.
func WithClock(c Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithRunIDGenerator sets the generator for report run ids.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Runner) {
		r.runIDs = g
	}
}

// WithTarget records the database the plan runs against (typically its
// URI) on the report.
func WithTarget(target string) Option {
	return func(r *Runner) {
		r.target = target
	}
}

// NewRunner creates a Runner for b.
func NewRunner(b backend.Backend, opts ...Option) *Runner {
	r := &Runner{
		backend:     b,
		concurrency: DefaultConcurrency,
		clock:       SystemClock{},
		runIDs:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend returns the runner's backend.
func (r *Runner) Backend() backend.Backend { return r.backend }

// ExecutePlan is shorthand for NewRunner(b, opts...).Execute.
func ExecutePlan(ctx context.Context, plan *ir.ValidationPlan, b backend.Backend, sess Session, opts ...Option) (*Report, error) {
	return NewRunner(b, opts...).Execute(ctx, plan, sess)
}

// Execute runs every check of plan against sess.
//
// Compile and pre-flight failures abort the run with a *RunError. A
// failing check query does not: it is recorded on that check's result.
// A cancelled ctx aborts the run with ctx.Err().
func (r *Runner) Execute(ctx context.Context, plan *ir.ValidationPlan, sess Session) (*Report, error) {
	compiled, err := CompilePlan(plan, r.backend)
	if err != nil {
		return nil, err
	}
	fingerprint, err := plan.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint plan: %w", err)
	}

	pop, err := survey(ctx, plan, compiled, r.backend, sess)
	if err != nil {
		return nil, err
	}

	results := make([]CheckResult, len(compiled))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, cc := range compiled {
		vacuous := pop.vacuous(cc.Check)
		g.Go(func() error {
			results[i] = runCheck(ctx, cc, vacuous, sess)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := summarize(results)
	slog.Info("plan executed",
		"schema", plan.SchemaSource,
		"backend", r.backend.Name(),
		"checks", summary.ChecksTotal,
		"passed", summary.ChecksPassed,
		"vacuous", summary.ChecksVacuous,
		"violations", summary.Violations)

	return &Report{
		RunID:        r.runIDs.Generate(),
		Conforms:     summary.Violations == 0,
		GeneratedAt:  r.clock.Now(),
		SchemaSource: plan.SchemaSource,
		Backend:      r.backend.Name(),
		Target:       r.target,
		Fingerprint:  fingerprint,
		Summary:      summary,
		Results:      results,
	}, nil
}

func runCheck(ctx context.Context, cc CompiledCheck, vacuous bool, sess Session) CheckResult {
	m := cc.Check.Base()
	res := CheckResult{
		CheckID:        m.ID,
		CheckType:      cc.Check.Kind(),
		Severity:       m.Severity,
		Message:        m.Message,
		Shape:          m.Shape,
		TargetLabel:    m.TargetLabel,
		ViolatingNodes: []ViolatingNode{},
		Query:          cc.Query,
	}

	switch {
	case cc.NoOp():
		res.Passed = !vacuous
		res.Vacuous = vacuous
		return res
	case vacuous:
		res.Vacuous = true
		slog.Debug("check vacuous", "check", m.ID, "label", m.TargetLabel)
		return res
	}

	rows, err := sess.Run(ctx, cc.Query)
	if err != nil {
		slog.Warn("check query failed", "check", m.ID, "error", err)
		res.Message = "Query execution failed: " + err.Error()
		res.Error = err.Error()
		return res
	}
	for _, row := range rows {
		res.ViolatingNodes = append(res.ViolatingNodes, violatingNode(row))
	}
	res.ViolationCount = len(res.ViolatingNodes)
	res.Passed = res.ViolationCount == 0
	slog.Debug("check executed", "check", m.ID, "violations", res.ViolationCount)
	return res
}

// summarize tallies results. Every count is a sum over independent
// results, so execution order does not matter.
func summarize(results []CheckResult) Summary {
	s := Summary{ChecksTotal: len(results)}
	for _, res := range results {
		switch {
		case res.Vacuous:
			s.ChecksVacuous++
		case res.Passed:
			s.ChecksPassed++
		case res.Error != "":
			s.Violations++
		case res.Severity == ir.SeverityViolation:
			s.Violations++
		case res.Severity == ir.SeverityWarning:
			s.Warnings++
		default:
			s.Info++
		}
	}
	return s
}
