// Package shacl compiles SHACL shapes written in Turtle into graphlint
// checks.
//
// Each sh:NodeShape contributes checks for every class it targets
// (sh:targetClass, or the shape itself when it has none). Property shapes
// become property or relationship checks depending on sh:nodeKind,
// sh:node, sh:class and sh:datatype. Shape-level sh:closed and the
// logical combinators sh:not, sh:and, sh:or and sh:xone are supported.
//
// Malformed fragments (a property shape without sh:path, a complex path)
// are skipped with a warning rather than failing the parse.
package shacl

import (
	"fmt"
	"log/slog"

	"github.com/roach88/graphlint/internal/ir"
	"github.com/roach88/graphlint/internal/rdf"
)

// Parse reads a SHACL document and returns a plan without strict-mode
// checks. A nil mapping uses naming conventions only.
func Parse(turtle string, m *ir.Mapping, source string) (*ir.ValidationPlan, error) {
	g, err := rdf.ParseTurtle(turtle)
	if err != nil {
		return nil, fmt.Errorf("parse turtle: %w", err)
	}
	return FromGraph(g, m, source), nil
}

// FromGraph walks an already parsed graph.
func FromGraph(g *rdf.Graph, m *ir.Mapping, source string) *ir.ValidationPlan {
	if m == nil {
		m = ir.NewMapping()
	}
	w := &walker{
		g:         g,
		m:         m,
		hierarchy: buildHierarchy(g, m),
	}

	var checks []ir.Check
	// Class IRIs rather than shape IRIs, so declared labels resolve
	// through the mapping.
	var classIRIs []string

	for _, shapeNode := range g.Subjects(rdf.RDFType, NodeShape) {
		shapeIRI := shapeNode.String()

		targets := g.Objects(shapeNode, targetClass)
		if len(targets) == 0 {
			targets = []rdf.Term{shapeNode}
		}

		for _, target := range targets {
			classIRI := target.String()
			classIRIs = append(classIRIs, classIRI)
			label := m.LabelFor(classIRI)

			var declaredPaths []string
			for _, propNode := range g.Objects(shapeNode, property) {
				if p, ok := g.Value(propNode, path); ok {
					if iri, ok := p.(rdf.IRI); ok {
						declaredPaths = append(declaredPaths, string(iri))
					}
				}
				checks = append(checks, w.propertyShape(propNode, shapeIRI, label)...)
			}

			if c := w.closedShape(shapeNode, shapeIRI, label, declaredPaths); c != nil {
				checks = append(checks, c)
			}

			checks = append(checks, w.logicalConstraints(shapeNode, shapeIRI, label)...)
		}
	}

	ir.DedupeIDs(checks)

	return &ir.ValidationPlan{
		SchemaSource: source,
		Checks:       checks,
		Shapes:       classIRIs,
		Mapping:      m,
	}
}

// walker holds the per-parse state shared by the property, relationship
// and logical helpers.
type walker struct {
	g         *rdf.Graph
	m         *ir.Mapping
	hierarchy map[string][]string
}

// closedShape emits the undeclared-properties check for sh:closed true.
func (w *walker) closedShape(shapeNode rdf.Term, shapeIRI, label string, declaredPaths []string) ir.Check {
	v, ok := w.g.Value(shapeNode, closed)
	if !ok {
		return nil
	}
	if lit, isLit := v.(rdf.Literal); !isLit || !lit.Bool() {
		return nil
	}

	allowedIRIs := append([]string{}, declaredPaths...)
	if head, ok := w.g.Value(shapeNode, ignoredProperties); ok {
		items, err := w.g.Collection(head)
		if err != nil {
			slog.Warn("malformed sh:ignoredProperties list, ignoring", "shape", shapeIRI, "error", err)
		}
		for _, item := range items {
			allowedIRIs = append(allowedIRIs, item.String())
		}
	}

	allowed := make([]string, 0, len(allowedIRIs))
	for _, iri := range allowedIRIs {
		allowed = append(allowed, w.m.PropertyFor(iri))
	}

	return &ir.UndeclaredProperties{
		Meta: ir.Meta{
			ID:          ir.ShapeCheckID(label, "closed-undeclared-props"),
			Shape:       shapeIRI,
			TargetLabel: label,
			Severity:    ir.SeverityViolation,
			Message:     ir.ClosedMessage(label, allowed),
		},
		AllowedProperties: allowed,
	}
}

// severityOf maps sh:severity to a Severity; SHACL defaults to Violation.
func severityOf(t rdf.Term, ok bool) ir.Severity {
	if !ok {
		return ir.SeverityViolation
	}
	switch t {
	case severityWarning:
		return ir.SeverityWarning
	case severityInfo:
		return ir.SeverityInfo
	}
	return ir.SeverityViolation
}

// valueOf converts a term to an IR value: literals by datatype, IRIs and
// blank nodes as their text.
func valueOf(t rdf.Term) ir.Value {
	if lit, ok := t.(rdf.Literal); ok {
		if v, err := ir.ValueOf(lit.Native()); err == nil {
			return v
		}
		return ir.String(lit.Lexical)
	}
	return ir.String(t.String())
}

// listValues reads an RDF list (sh:in) as IR values.
func (w *walker) listValues(head rdf.Term, context string) []ir.Value {
	items, err := w.g.Collection(head)
	if err != nil {
		slog.Warn("malformed RDF list, using the readable prefix", "context", context, "error", err)
	}
	out := make([]ir.Value, 0, len(items))
	for _, item := range items {
		out = append(out, valueOf(item))
	}
	return out
}

func (w *walker) intValue(s rdf.Term, p rdf.IRI) (int, bool) {
	v, ok := w.g.Value(s, p)
	if !ok {
		return 0, false
	}
	lit, ok := v.(rdf.Literal)
	if !ok {
		return 0, false
	}
	return lit.Int()
}

func (w *walker) floatValue(s rdf.Term, p rdf.IRI) *float64 {
	v, ok := w.g.Value(s, p)
	if !ok {
		return nil
	}
	lit, ok := v.(rdf.Literal)
	if !ok {
		return nil
	}
	f, ok := lit.Float()
	if !ok {
		return nil
	}
	return &f
}

func (w *walker) optionalInt(s rdf.Term, p rdf.IRI) *int {
	if n, ok := w.intValue(s, p); ok {
		return &n
	}
	return nil
}
