package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/graphlint/internal/compiler"
	"github.com/roach88/graphlint/internal/config"
	"github.com/roach88/graphlint/internal/ir"
)

// SchemaOptions are the flags shared by every command that compiles a
// schema.
type SchemaOptions struct {
	SchemaFormat string // explicit grammar; empty means detect
	Mapping      string // mapping override file
	Strict       bool
}

func (o *SchemaOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.SchemaFormat, "schema-format", "", "schema grammar (shacl|shexc); detected when empty")
	cmd.Flags().StringVarP(&o.Mapping, "mapping", "m", "", "mapping override file (.yaml, .json or .cue)")
	cmd.Flags().BoolVar(&o.Strict, "strict", false, "add closed-world coverage checks")
}

// loadPlan reads and compiles the schema at path. Failures are reported
// through f and returned as an *ExitError.
func loadPlan(f *OutputFormatter, path string, opts SchemaOptions) (*ir.ValidationPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, "reading schema", err)
	}

	format, err := compiler.ParseFormat(opts.SchemaFormat)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeParse, "schema format", err)
	}

	var mapping *ir.Mapping
	if opts.Mapping != "" {
		mapping, err = config.LoadMapping(opts.Mapping)
		if err != nil {
			var le *config.LoadError
			if errors.As(err, &le) {
				return nil, f.Fail(ExitCommandError, ErrCodeMapping, fmt.Sprintf("mapping %s [%s]", opts.Mapping, le.Code), err)
			}
			return nil, f.Fail(ExitCommandError, ErrCodeMapping, "mapping "+opts.Mapping, err)
		}
		f.VerboseLog("Loaded mapping from %s", opts.Mapping)
	}

	plan, err := compiler.ParseSchema(string(data), compiler.Options{
		Format:  format,
		Mapping: mapping,
		Source:  filepath.Base(path),
		Strict:  opts.Strict,
	})
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeParse, "parsing schema", err)
	}

	slog.Debug("schema compiled",
		"source", plan.SchemaSource,
		"shapes", len(plan.Shapes),
		"checks", len(plan.Checks),
		"strict", opts.Strict)
	return plan, nil
}
