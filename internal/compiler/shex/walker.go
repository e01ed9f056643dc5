// Package shex compiles ShExC schemas into graphlint checks.
//
// A shape's node type comes from its "a [ ... ]" (rdf:type) constraint,
// falling back to the shape label. Triple constraints become property or
// relationship checks: a shape reference or a non-literal node kind marks
// a relationship. Top-level AND conjuncts are merged into one shape; NOT
// and OR over inline shapes become logical checks.
package shex

import (
	"fmt"
	"log/slog"

	"github.com/roach88/graphlint/internal/ir"
	"github.com/roach88/graphlint/internal/rdf"
)

// Parse reads a ShExC document and returns a plan without strict-mode
// checks. A nil mapping uses naming conventions only.
func Parse(input string, m *ir.Mapping, source string) (*ir.ValidationPlan, error) {
	s, err := ParseSchema(input)
	if err != nil {
		return nil, fmt.Errorf("parse shexc: %w", err)
	}
	return FromSchema(s, m, source), nil
}

// FromSchema walks a parsed schema.
func FromSchema(s *Schema, m *ir.Mapping, source string) *ir.ValidationPlan {
	if m == nil {
		m = ir.NewMapping()
	}
	w := &walker{schema: s, m: m}

	var checks []ir.Check
	var classIRIs []string

	for _, decl := range s.Shapes {
		parts := w.conjuncts(decl)

		targets := typesOf(parts.constraints)
		if len(targets) == 0 {
			targets = []string{decl.Label}
		}

		for _, classIRI := range targets {
			classIRIs = append(classIRIs, classIRI)
			label := m.LabelFor(classIRI)

			var declared []string
			for _, tc := range parts.constraints {
				if tc.Predicate == string(rdf.RDFType) {
					continue
				}
				if !tc.Inverse {
					declared = append(declared, tc.Predicate)
				}
				checks = append(checks, w.tripleConstraint(tc, decl.Label, label)...)
			}

			if parts.closed {
				checks = append(checks, w.closedShape(decl.Label, label, declared))
			}

			for _, operand := range parts.nots {
				subs := w.innerChecks(operand, decl.Label, label)
				if len(subs) > 0 {
					joined := operandOf(ir.OpNot, 1, subs, decl.Label, label)
					checks = append(checks, logical(ir.OpNot, []ir.Check{joined}, decl.Label, label))
				}
			}
			for _, or := range parts.ors {
				var subs []ir.Check
				for _, operand := range or.Operands {
					if inner := w.innerChecks(operand, decl.Label, label); len(inner) > 0 {
						subs = append(subs, operandOf(ir.OpOr, len(subs)+1, inner, decl.Label, label))
					}
				}
				if len(subs) > 0 {
					checks = append(checks, logical(ir.OpOr, subs, decl.Label, label))
				}
			}
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

type walker struct {
	schema *Schema
	m      *ir.Mapping
}

// shapeParts is a declaration flattened over its top-level AND.
type shapeParts struct {
	constraints []*TripleConstraint
	closed      bool
	nots        []ShapeExpr
	ors         []*ShapeOr
}

func (w *walker) conjuncts(decl *ShapeDecl) shapeParts {
	var parts shapeParts
	var visit func(e ShapeExpr)
	visit = func(e ShapeExpr) {
		switch v := e.(type) {
		case nil, *AnyShape:
		case *ShapeAnd:
			for _, op := range v.Operands {
				visit(op)
			}
		case *Shape:
			parts.closed = parts.closed || v.Closed
			parts.constraints = append(parts.constraints, tripleConstraints(v.Expr, decl.Label)...)
		case *ShapeNot:
			parts.nots = append(parts.nots, v.Operand)
		case *ShapeOr:
			parts.ors = append(parts.ors, v)
		case *ShapeRef:
			slog.Warn("shape reference in a shape conjunction is not expanded, skipping",
				"shape", decl.Label, "ref", v.Label)
		case *NodeConstraint:
			slog.Warn("node constraint on a shape's focus node is not supported, skipping",
				"shape", decl.Label)
		}
	}
	visit(decl.Expr)
	return parts
}

// tripleConstraints flattens EachOf groups. OneOf choices have no
// per-property equivalent and are skipped.
func tripleConstraints(e TripleExpr, shape string) []*TripleConstraint {
	switch v := e.(type) {
	case *TripleConstraint:
		return []*TripleConstraint{v}
	case *EachOf:
		if v.Card != One {
			slog.Warn("repeated triple expression group is flattened, its cardinality is ignored",
				"shape", shape)
		}
		var out []*TripleConstraint
		for _, sub := range v.Exprs {
			out = append(out, tripleConstraints(sub, shape)...)
		}
		return out
	case *OneOf:
		slog.Warn("one-of triple expressions are not supported, skipping", "shape", shape)
	}
	return nil
}

// typesOf returns the IRIs listed by "a [ ... ]" constraints.
func typesOf(tcs []*TripleConstraint) []string {
	var out []string
	for _, tc := range tcs {
		if tc.Predicate != string(rdf.RDFType) || tc.Inverse {
			continue
		}
		nc, ok := tc.ValueExpr.(*NodeConstraint)
		if !ok {
			continue
		}
		for _, v := range nc.Values {
			if iri, ok := v.(rdf.IRI); ok {
				out = append(out, string(iri))
			}
		}
	}
	return out
}

// valueInfo is what a triple constraint's value expression says about
// the value.
type valueInfo struct {
	ref        string
	inline     bool
	constraint *NodeConstraint
}

func analyze(e ShapeExpr, shape string) valueInfo {
	var info valueInfo
	var visit func(e ShapeExpr)
	visit = func(e ShapeExpr) {
		switch v := e.(type) {
		case nil, *AnyShape:
		case *ShapeRef:
			info.ref = v.Label
		case *NodeConstraint:
			info.constraint = v
		case *Shape:
			info.inline = true
		case *ShapeAnd:
			for _, op := range v.Operands {
				visit(op)
			}
		default:
			slog.Warn("value expression is not supported, only cardinality is checked", "shape", shape)
		}
	}
	visit(e)
	return info
}

func (i valueInfo) isRelationship() bool {
	if i.ref != "" || i.inline {
		return true
	}
	if i.constraint == nil {
		return false
	}
	switch i.constraint.Kind {
	case KindIRI, KindBNode, KindNonLiteral:
		return true
	}
	return false
}

func (w *walker) tripleConstraint(tc *TripleConstraint, shape, label string) []ir.Check {
	info := analyze(tc.ValueExpr, shape)
	var maxC *int
	if tc.Card.Max != Unbounded {
		maxC = ir.Ptr(tc.Card.Max)
	}
	direction := ir.Outgoing
	if tc.Inverse {
		direction = ir.Incoming
	}

	if info.isRelationship() {
		return []ir.Check{w.relationshipCheck(tc, info, shape, label, maxC, direction)}
	}
	if tc.Inverse {
		slog.Warn("inverse triple constraint on a literal value, skipping",
			"shape", shape, "predicate", tc.Predicate)
		return nil
	}
	return w.propertyChecks(tc, info.constraint, shape, label)
}

func (w *walker) relationshipCheck(tc *TripleConstraint, info valueInfo, shape, label string,
	maxC *int, direction ir.Direction) ir.Check {

	relType := w.m.RelationshipFor(tc.Predicate)
	targetLabel := "Unknown"
	if info.ref != "" {
		targetLabel = w.m.LabelFor(w.targetClass(info.ref))
	}

	return &ir.RelationshipCardinality{
		Meta: ir.Meta{
			ID:          ir.CheckID(label, relType, ir.SuffixCardinality),
			Shape:       shape,
			TargetLabel: label,
			Severity:    ir.SeverityViolation,
			Message:     ir.CardinalityMessage(label, relType, targetLabel, tc.Card.Min, maxC),
		},
		Relationship: ir.RelationshipTarget{
			Type:        relType,
			Direction:   direction,
			TargetLabel: targetLabel,
		},
		MinCount: tc.Card.Min,
		MaxCount: maxC,
	}
}

// targetClass resolves a referenced shape to its declared node type, or
// the shape label itself.
func (w *walker) targetClass(ref string) string {
	decl, ok := w.schema.Lookup(ref)
	if !ok {
		return ref
	}
	parts := shapeParts{}
	if s, ok := decl.Expr.(*Shape); ok {
		parts.constraints = tripleConstraints(s.Expr, ref)
	} else if and, ok := decl.Expr.(*ShapeAnd); ok {
		for _, op := range and.Operands {
			if s, ok := op.(*Shape); ok {
				parts.constraints = append(parts.constraints, tripleConstraints(s.Expr, ref)...)
			}
		}
	}
	if types := typesOf(parts.constraints); len(types) > 0 {
		return types[0]
	}
	return ref
}

func (w *walker) propertyChecks(tc *TripleConstraint, nc *NodeConstraint, shape, label string) []ir.Check {
	var checks []ir.Check
	prop := w.m.PropertyFor(tc.Predicate)
	optional := tc.Card.Min == 0
	meta := func(suffix, message string) ir.Meta {
		return ir.Meta{
			ID:          ir.CheckID(label, prop, suffix),
			Shape:       shape,
			TargetLabel: label,
			Severity:    ir.SeverityViolation,
			Message:     message,
		}
	}

	if !optional {
		checks = append(checks, &ir.PropertyExists{
			Meta:     meta(ir.SuffixExists, ir.ExistsMessage(label, prop)),
			Property: prop,
		})
	}
	if nc == nil {
		return checks
	}

	if nc.Datatype != "" {
		graphType := ir.GraphType(nc.Datatype)
		checks = append(checks, &ir.PropertyType{
			Meta:         meta(ir.SuffixType, ir.TypeMessage(label, prop, graphType)),
			Property:     prop,
			ExpectedType: graphType,
			OnlyIfExists: optional,
		})
	}

	if len(nc.Values) > 0 {
		allowed := values(nc.Values)
		checks = append(checks, &ir.PropertyValueIn{
			Meta:          meta(ir.SuffixValues, ir.ValuesMessage(label, prop, allowed)),
			Property:      prop,
			AllowedValues: allowed,
			OnlyIfExists:  optional,
		})
	}

	f := nc.Facets
	if f.HasPattern {
		checks = append(checks, &ir.PropertyPattern{
			Meta:         meta(ir.SuffixPattern, ir.PatternMessage(label, prop, f.Pattern)),
			Property:     prop,
			Pattern:      f.Pattern,
			Flags:        f.Flags,
			OnlyIfExists: optional,
		})
	}

	if minLen, maxLen := lengthBounds(f); minLen != nil || maxLen != nil {
		checks = append(checks, &ir.PropertyStringLength{
			Meta:         meta(ir.SuffixStrlen, ir.LengthMessage(label, prop, minLen, maxLen)),
			Property:     prop,
			MinLength:    minLen,
			MaxLength:    maxLen,
			OnlyIfExists: optional,
		})
	}

	if f.MinInclusive != nil || f.MaxInclusive != nil || f.MinExclusive != nil || f.MaxExclusive != nil {
		checks = append(checks, &ir.PropertyRange{
			Meta:         meta(ir.SuffixRange, ir.RangeMessage(label, prop, f.MinInclusive, f.MaxInclusive, f.MinExclusive, f.MaxExclusive)),
			Property:     prop,
			MinInclusive: f.MinInclusive,
			MaxInclusive: f.MaxInclusive,
			MinExclusive: f.MinExclusive,
			MaxExclusive: f.MaxExclusive,
			OnlyIfExists: optional,
		})
	}

	return checks
}

// lengthBounds folds LENGTH into equal minimum and maximum bounds.
func lengthBounds(f Facets) (*int, *int) {
	if f.Length != nil {
		return f.Length, f.Length
	}
	return f.MinLength, f.MaxLength
}

func values(terms []rdf.Term) []ir.Value {
	out := make([]ir.Value, 0, len(terms))
	for _, t := range terms {
		if lit, ok := t.(rdf.Literal); ok {
			if v, err := ir.ValueOf(lit.Native()); err == nil {
				out = append(out, v)
				continue
			}
		}
		out = append(out, ir.String(t.String()))
	}
	return out
}

func (w *walker) closedShape(shape, label string, declared []string) ir.Check {
	allowed := make([]string, 0, len(declared))
	for _, iri := range declared {
		allowed = append(allowed, w.m.PropertyFor(iri))
	}
	return &ir.UndeclaredProperties{
		Meta: ir.Meta{
			ID:          ir.ShapeCheckID(label, "closed-undeclared-props"),
			Shape:       shape,
			TargetLabel: label,
			Severity:    ir.SeverityViolation,
			Message:     ir.ClosedMessage(label, allowed),
		},
		AllowedProperties: allowed,
	}
}

func logical(op ir.LogicalOp, subs []ir.Check, shape, label string) ir.Check {
	return &ir.Logical{
		Meta: ir.Meta{
			ID:          ir.ShapeCheckID(label, ir.LogicalSuffix(op)),
			Shape:       shape,
			TargetLabel: label,
			Severity:    ir.SeverityViolation,
			Message:     ir.LogicalMessage(label, op, subs),
		},
		Op:        op,
		SubChecks: subs,
	}
}

// operandOf makes the checks of one operand a single sub-check.
func operandOf(op ir.LogicalOp, n int, subs []ir.Check, shape, label string) ir.Check {
	return ir.Operand(ir.Meta{
		ID:          ir.OperandID(label, op, n),
		Shape:       shape,
		TargetLabel: label,
		Severity:    ir.SeverityViolation,
	}, subs)
}

// innerChecks extracts the simple property conditions of a logical
// operand: an inline shape, or a reference to a declared one.
func (w *walker) innerChecks(operand ShapeExpr, shape, label string) []ir.Check {
	var tcs []*TripleConstraint
	switch v := operand.(type) {
	case *Shape:
		tcs = tripleConstraints(v.Expr, shape)
	case *ShapeRef:
		if decl, ok := w.schema.Lookup(v.Label); ok {
			tcs = w.conjuncts(decl).constraints
		}
	case *ShapeAnd:
		for _, op := range v.Operands {
			if s, ok := op.(*Shape); ok {
				tcs = append(tcs, tripleConstraints(s.Expr, shape)...)
			}
		}
	default:
		slog.Warn("logical operand is not a shape, skipping", "shape", shape)
	}

	var checks []ir.Check
	for _, tc := range tcs {
		if tc.Inverse || tc.Predicate == string(rdf.RDFType) {
			continue
		}
		checks = append(checks, w.inner(tc, shape, label)...)
	}
	return checks
}

func (w *walker) inner(tc *TripleConstraint, shape, label string) []ir.Check {
	var checks []ir.Check
	prop := w.m.PropertyFor(tc.Predicate)
	meta := func(suffix, message string) ir.Meta {
		return ir.Meta{
			ID:          ir.CheckID(label, prop, suffix),
			Shape:       shape,
			TargetLabel: label,
			Severity:    ir.SeverityViolation,
			Message:     message,
		}
	}

	if nc, ok := tc.ValueExpr.(*NodeConstraint); ok {
		if nc.Datatype != "" {
			graphType := ir.GraphType(nc.Datatype)
			checks = append(checks, &ir.PropertyType{
				Meta:         meta(ir.SuffixInnerType, ir.TypeMessage(label, prop, graphType)),
				Property:     prop,
				ExpectedType: graphType,
			})
		}
		f := nc.Facets
		if f.MinInclusive != nil || f.MaxInclusive != nil {
			checks = append(checks, &ir.PropertyRange{
				Meta:         meta(ir.SuffixInnerRange, fmt.Sprintf("%s.%s range constraint", label, prop)),
				Property:     prop,
				MinInclusive: f.MinInclusive,
				MaxInclusive: f.MaxInclusive,
			})
		}
		if f.HasPattern {
			checks = append(checks, &ir.PropertyPattern{
				Meta:     meta(ir.SuffixInnerPattern, ir.PatternMessage(label, prop, f.Pattern)),
				Property: prop,
				Pattern:  f.Pattern,
				Flags:    f.Flags,
			})
		}
		switch allowed := values(nc.Values); len(allowed) {
		case 0:
		case 1:
			checks = append(checks, &ir.PropertyValueIn{
				Meta:          meta(ir.SuffixInnerHasValue, fmt.Sprintf("%s.%s must equal '%s'", label, prop, plain(allowed[0]))),
				Property:      prop,
				AllowedValues: allowed,
				OnlyIfExists:  true,
			})
		default:
			checks = append(checks, &ir.PropertyValueIn{
				Meta:          meta(ir.SuffixInnerValues, ir.ValuesMessage(label, prop, allowed)),
				Property:      prop,
				AllowedValues: allowed,
				OnlyIfExists:  true,
			})
		}
		if minLen, maxLen := lengthBounds(f); minLen != nil || maxLen != nil {
			checks = append(checks, &ir.PropertyStringLength{
				Meta:      meta(ir.SuffixInnerStrlen, ir.LengthMessage(label, prop, minLen, maxLen)),
				Property:  prop,
				MinLength: minLen,
				MaxLength: maxLen,
			})
		}
	}

	if tc.Card.Min > 0 {
		checks = append(checks, &ir.PropertyExists{
			Meta:     meta(ir.SuffixInnerExists, fmt.Sprintf("%s node must have '%s' property", label, prop)),
			Property: prop,
		})
	}
	return checks
}

func plain(v ir.Value) string {
	if s, ok := v.(ir.String); ok {
		return string(s)
	}
	return ir.FormatValue(v)
}
