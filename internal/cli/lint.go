package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/graphlint/internal/compiler"
)

// LintOptions holds flags for the lint command.
type LintOptions struct {
	*RootOptions
	SchemaOptions
}

// LintResult is the structured output of the lint command.
type LintResult struct {
	Valid    bool                       `json:"valid" yaml:"valid"`
	Findings []compiler.ValidationError `json:"findings" yaml:"findings"`
	Cycles   []compiler.CycleWarning    `json:"cycles" yaml:"cycles"`
}

// NewLintCommand creates the lint command.
func NewLintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lint <schema>",
		Short: "Check a schema's plan for problems before running it",
		Long: `Compile a schema and report structural errors (E1xx), advisory
warnings (W2xx) and cycles of required relationships.

Exits 1 when any error-level finding is reported; warnings and cycles
alone exit 0.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runLint(opts *LintOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	plan, err := loadPlan(f, path, opts.SchemaOptions)
	if err != nil {
		return err
	}

	res := LintResult{
		Valid:    true,
		Findings: compiler.Lint(plan),
		Cycles:   compiler.AnalyzeCycles(plan),
	}
	if res.Findings == nil {
		res.Findings = []compiler.ValidationError{}
	}
	for _, finding := range res.Findings {
		if !finding.IsWarning() {
			res.Valid = false
		}
	}

	if err := f.Success(res, func(w io.Writer) error {
		return writeLintText(w, plan.SchemaSource, res)
	}); err != nil {
		return err
	}
	if !res.Valid {
		return NewExitError(ExitFailure, "lint found errors")
	}
	return nil
}

func writeLintText(w io.Writer, source string, res LintResult) error {
	if len(res.Findings) == 0 && len(res.Cycles) == 0 {
		_, err := fmt.Fprintf(w, "✓ %s: no problems found\n", source)
		return err
	}
	for _, finding := range res.Findings {
		fmt.Fprintf(w, "%s [%s] %s: %s\n", source, finding.Code, finding.Field, finding.Message)
	}
	for _, c := range res.Cycles {
		fmt.Fprintf(w, "%s [cycle] %s\n", source, c.Message)
	}
	return nil
}
