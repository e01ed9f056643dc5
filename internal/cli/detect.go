package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/graphlint/internal/compiler"
)

// DetectResult is the structured output of the detect command.
type DetectResult struct {
	Path   string          `json:"path" yaml:"path"`
	Format compiler.Format `json:"format" yaml:"format"`
}

// NewDetectCommand creates the detect command.
func NewDetectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "detect <schema>",
		Short:         "Print the detected schema grammar",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			data, err := os.ReadFile(args[0])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeNotFound, "reading schema", err)
			}
			res := DetectResult{Path: args[0], Format: compiler.DetectFormat(string(data))}
			return f.Success(res, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, res.Format)
				return err
			})
		},
	}
}
