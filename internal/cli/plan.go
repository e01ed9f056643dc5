package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/graphlint/internal/ir"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	SchemaOptions
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <schema>",
		Short: "Show the checks a schema compiles to",
		Long: `Parse a SHACL or ShExC schema and print the validation plan: one
line per check with its kind, severity and message.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runPlan(opts *PlanOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	plan, err := loadPlan(f, path, opts.SchemaOptions)
	if err != nil {
		return err
	}
	return f.Success(plan.Document(), func(w io.Writer) error {
		return writePlanText(w, plan)
	})
}

func writePlanText(w io.Writer, plan *ir.ValidationPlan) error {
	fmt.Fprintf(w, "Schema: %s\n", plan.SchemaSource)
	fmt.Fprintf(w, "Shapes: %s\n\n", strings.Join(plan.DeclaredLabels(), ", "))

	width := 0
	for _, c := range plan.Checks {
		width = max(width, len(c.Base().ID))
	}
	for _, c := range plan.Checks {
		m := c.Base()
		fmt.Fprintf(w, "  %-*s  %-9s  %s\n", width, m.ID, m.Severity, m.Message)
	}

	counts := plan.CountByKind()
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	fmt.Fprintf(w, "\n%d checks\n", len(plan.Checks))
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-30s %d\n", k, counts[ir.Kind(k)])
	}
	return nil
}
