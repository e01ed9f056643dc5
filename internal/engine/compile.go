package engine

import (
	"strings"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/ir"
)

// CompiledCheck pairs a check with its query text.
type CompiledCheck struct {
	Check ir.Check
	Query string
}

// NoOp reports whether the query must be skipped.
func (c CompiledCheck) NoOp() bool { return backend.IsNoOp(c.Query) }

// CompilePlan compiles every top-level check in plan order. It never
// touches a database.
func CompilePlan(plan *ir.ValidationPlan, b backend.Backend) ([]CompiledCheck, error) {
	out := make([]CompiledCheck, 0, len(plan.Checks))
	for _, c := range plan.Checks {
		q, err := b.CompileCheck(c)
		if err != nil {
			return nil, compileError(c.Base().ID, err)
		}
		out = append(out, CompiledCheck{Check: c, Query: q})
	}
	return out, nil
}

// DryRun renders every compiled query with a two-line comment header:
//
//	-- [VIOLATION] movie-title-exists
//	-- Movie node missing required 'title' property
//	MATCH ...
func DryRun(plan *ir.ValidationPlan, b backend.Backend) (string, error) {
	compiled, err := CompilePlan(plan, b)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, cc := range compiled {
		m := cc.Check.Base()
		lines = append(lines,
			"-- ["+strings.ToUpper(string(m.Severity))+"] "+m.ID,
			"-- "+m.Message,
			cc.Query,
			"",
		)
	}
	return strings.Join(lines, "\n"), nil
}
