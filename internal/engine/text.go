package engine

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/roach88/graphlint/internal/ir"
)

// maxListedNodes caps the violating nodes printed per failed check.
const maxListedNodes = 5

// TextOptions configures WriteText.
type TextOptions struct {
	NoColor bool
}

type palette struct {
	bold, pass, fail, warn, info, gray *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		bold: color.New(color.Bold),
		pass: color.New(color.Bold, color.FgGreen),
		fail: color.New(color.Bold, color.FgRed),
		warn: color.New(color.FgYellow),
		info: color.New(color.FgCyan),
		gray: color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{p.bold, p.pass, p.fail, p.warn, p.info, p.gray} {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s ir.Severity) (*color.Color, string) {
	switch s {
	case ir.SeverityViolation:
		return p.fail, "✗"
	case ir.SeverityWarning:
		return p.warn, "⚠"
	case ir.SeverityInfo:
		return p.info, "ℹ"
	}
	return p.gray, "?"
}

// WriteText renders the report for a terminal: a header, the verdict
// banner, the summary line and every failed check with up to five of its
// violating nodes.
func (r *Report) WriteText(w io.Writer, opts *TextOptions) error {
	noColor := opts != nil && opts.NoColor
	p := newPalette(noColor)
	var b strings.Builder

	p.bold.Fprintln(&b, "graphlint validation report")
	fmt.Fprintf(&b, "  schema: %s\n", r.SchemaSource)
	fmt.Fprintf(&b, "  backend: %s\n", r.Backend)
	if r.Target != "" {
		fmt.Fprintf(&b, "  target: %s\n", r.Target)
	}
	fmt.Fprintf(&b, "  generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	if r.RunID != "" {
		fmt.Fprintf(&b, "  run: %s\n", r.RunID)
	}
	b.WriteString("\n")

	if r.Conforms {
		p.pass.Fprintln(&b, "  ✓ CONFORMS")
	} else {
		p.fail.Fprintln(&b, "  ✗ DOES NOT CONFORM")
	}
	s := r.Summary
	fmt.Fprintf(&b, "  %d/%d checks passed  |  %d violations  %d warnings  %d info",
		s.ChecksPassed, s.ChecksTotal, s.Violations, s.Warnings, s.Info)
	if s.ChecksVacuous > 0 {
		fmt.Fprintf(&b, "  %d skipped (no data)", s.ChecksVacuous)
	}
	b.WriteString("\n\n")

	var failed []CheckResult
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	if len(failed) > 0 {
		p.bold.Fprintln(&b, "  VIOLATIONS:")
		b.WriteString("\n")
		for _, res := range failed {
			c, icon := p.severity(res.Severity)
			c.Fprintf(&b, "  %s [%s] %s\n", icon, strings.ToUpper(string(res.Severity)), res.CheckID)
			fmt.Fprintf(&b, "    %s\n", res.Message)
			fmt.Fprintf(&b, "    %d node(s) affected\n", res.ViolationCount)
			for i, vn := range res.ViolatingNodes {
				if i == maxListedNodes {
					break
				}
				fmt.Fprintf(&b, "      → %s %v%s\n", vn.NodeID, vn.Labels, extraText(vn))
			}
			if res.ViolationCount > maxListedNodes {
				p.gray.Fprintf(&b, "      ... and %d more\n", res.ViolationCount-maxListedNodes)
			}
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func extraText(vn ViolatingNode) string {
	keys := vn.ExtraKeys()
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, vn.Extra[k])
	}
	return "  " + strings.Join(parts, "  ")
}
