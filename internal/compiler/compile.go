// Package compiler turns schema text into a ValidationPlan.
//
// ParseSchema is the single entry point. It picks the grammar (explicitly
// or by DetectFormat), delegates to the shacl or shex walker, and appends
// strict-mode coverage checks when asked. Parsing has no I/O and no shared
// state, so independent schemas may be compiled concurrently.
package compiler

import (
	"fmt"

	"github.com/roach88/graphlint/internal/compiler/shacl"
	"github.com/roach88/graphlint/internal/compiler/shex"
	"github.com/roach88/graphlint/internal/ir"
)

// Options control ParseSchema.
type Options struct {
	// Format overrides detection when non-empty.
	Format Format

	// Mapping supplies naming overrides. Nil means convention only.
	Mapping *ir.Mapping

	// Source labels the plan (usually the file name). Defaults to
	// "<string>".
	Source string

	// Strict appends closed-world coverage checks.
	Strict bool
}

// ParseSchema compiles schema text into a plan. Any syntax error makes
// the whole schema unusable and is returned as a *ParseError.
func ParseSchema(schema string, opts Options) (*ir.ValidationPlan, error) {
	format := opts.Format
	if format == "" {
		format = DetectFormat(schema)
	}
	source := opts.Source
	if source == "" {
		source = "<string>"
	}

	var (
		plan *ir.ValidationPlan
		err  error
	)
	switch format {
	case FormatSHACL:
		plan, err = shacl.Parse(schema, opts.Mapping, source)
	case FormatShExC:
		plan, err = shex.Parse(schema, opts.Mapping, source)
	default:
		return nil, &ParseError{
			Format: format,
			Source: source,
			Err:    fmt.Errorf("unknown schema format %q", format),
		}
	}
	if err != nil {
		return nil, &ParseError{Format: format, Source: source, Err: err}
	}

	if opts.Strict {
		plan.Checks = append(plan.Checks, StrictChecks(plan)...)
	}
	return plan, nil
}

// ParseError reports a schema that could not be parsed.
type ParseError struct {
	Format Format
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Source, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
