package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/engine"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	SchemaOptions
	Backend string
	Output  string // output file path
}

// CompiledQuery is the structured form of one compiled check.
type CompiledQuery struct {
	CheckID string `json:"check_id" yaml:"check_id"`
	NoOp    bool   `json:"no_op" yaml:"no_op"`
	Query   string `json:"query" yaml:"query"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema>",
		Short: "Print the query for every check without touching a database",
		Long: `Compile a schema to backend queries (a dry run).

Each check is printed as a comment with its severity and id, the
message, then the query. No-op checks print as a comment line.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Backend, "backend", "b", "cypher", fmt.Sprintf("query backend %v", backend.Names()))
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the dry run to a file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	b, err := backend.Get(opts.Backend)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBackend, "backend", err)
	}
	plan, err := loadPlan(f, path, opts.SchemaOptions)
	if err != nil {
		return err
	}

	dry, err := engine.DryRun(plan, b)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBackend, "compiling checks", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(dry), 0o644); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
		f.VerboseLog("Wrote %d checks to %s", len(plan.Checks), opts.Output)
	}

	compiled, err := engine.CompilePlan(plan, b)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBackend, "compiling checks", err)
	}
	queries := make([]CompiledQuery, len(compiled))
	for i, cc := range compiled {
		queries[i] = CompiledQuery{CheckID: cc.Check.Base().ID, NoOp: cc.NoOp(), Query: cc.Query}
	}

	return f.Success(queries, func(w io.Writer) error {
		_, err := io.WriteString(w, dry)
		return err
	})
}
