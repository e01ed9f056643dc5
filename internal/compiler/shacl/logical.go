package shacl

import (
	"fmt"

	"github.com/roach88/graphlint/internal/ir"
	"github.com/roach88/graphlint/internal/rdf"
)

// logicalConstraints compiles shape-level sh:not, sh:and, sh:or and sh:xone.
// Each sh:not yields its own check; the list operators yield one check each
// and only when at least one operand produced a sub-check. Every operand
// becomes one sub-check.
func (w *walker) logicalConstraints(shapeNode rdf.Term, shapeIRI, label string) []ir.Check {
	var checks []ir.Check

	for _, notShape := range w.g.Objects(shapeNode, not) {
		subs := w.logicalInner(notShape, shapeIRI, label)
		if len(subs) == 0 {
			continue
		}
		operand := w.operand(ir.OpNot, 1, subs, shapeIRI, label)
		checks = append(checks, w.logical(ir.OpNot, []ir.Check{operand}, shapeIRI, label))
	}

	for _, op := range []struct {
		pred rdf.IRI
		op   ir.LogicalOp
	}{
		{and, ir.OpAnd},
		{or, ir.OpOr},
		{xone, ir.OpXone},
	} {
		head, ok := w.g.Value(shapeNode, op.pred)
		if !ok {
			continue
		}
		operands, _ := w.g.Collection(head)
		var subs []ir.Check
		for _, inner := range operands {
			if found := w.logicalInner(inner, shapeIRI, label); len(found) > 0 {
				subs = append(subs, w.operand(op.op, len(subs)+1, found, shapeIRI, label))
			}
		}
		if len(subs) == 0 {
			continue
		}
		checks = append(checks, w.logical(op.op, subs, shapeIRI, label))
	}

	return checks
}

func (w *walker) logical(op ir.LogicalOp, subs []ir.Check, shapeIRI, label string) ir.Check {
	return &ir.Logical{
		Meta: ir.Meta{
			ID:          ir.ShapeCheckID(label, ir.LogicalSuffix(op)),
			Shape:       shapeIRI,
			TargetLabel: label,
			Severity:    ir.SeverityViolation,
			Message:     ir.LogicalMessage(label, op, subs),
		},
		Op:        op,
		SubChecks: subs,
	}
}

func (w *walker) operand(op ir.LogicalOp, n int, subs []ir.Check, shapeIRI, label string) ir.Check {
	return ir.Operand(ir.Meta{
		ID:          ir.OperandID(label, op, n),
		Shape:       shapeIRI,
		TargetLabel: label,
		Severity:    ir.SeverityViolation,
	}, subs)
}

// logicalInner extracts the simple property constraints of an operand
// shape. The operand may be a node shape with sh:property entries or a
// property shape with its own sh:path.
func (w *walker) logicalInner(inner rdf.Term, shapeIRI, label string) []ir.Check {
	propNodes := w.g.Objects(inner, property)
	if _, ok := w.g.Value(inner, path); ok {
		propNodes = append(propNodes, inner)
	}

	var checks []ir.Check
	for _, propNode := range propNodes {
		p, ok := w.g.Value(propNode, path)
		if !ok {
			continue
		}
		iri, ok := p.(rdf.IRI)
		if !ok {
			continue
		}
		checks = append(checks, w.innerChecks(propNode, shapeIRI, label, w.m.PropertyFor(string(iri)))...)
	}
	return checks
}

func (w *walker) innerChecks(propNode rdf.Term, shapeIRI, label, prop string) []ir.Check {
	var checks []ir.Check
	meta := func(suffix, message string) ir.Meta {
		return ir.Meta{
			ID:          ir.CheckID(label, prop, suffix),
			Shape:       shapeIRI,
			TargetLabel: label,
			Severity:    ir.SeverityViolation,
			Message:     message,
		}
	}

	if dt, ok := w.g.Value(propNode, datatype); ok {
		graphType := ir.GraphType(dt.String())
		checks = append(checks, &ir.PropertyType{
			Meta:         meta(ir.SuffixInnerType, ir.TypeMessage(label, prop, graphType)),
			Property:     prop,
			ExpectedType: graphType,
		})
	}

	minInc := w.floatValue(propNode, minInclusive)
	maxInc := w.floatValue(propNode, maxInclusive)
	if minInc != nil || maxInc != nil {
		checks = append(checks, &ir.PropertyRange{
			Meta:         meta(ir.SuffixInnerRange, fmt.Sprintf("%s.%s range constraint", label, prop)),
			Property:     prop,
			MinInclusive: minInc,
			MaxInclusive: maxInc,
		})
	}

	if pat, ok := w.g.Value(propNode, pattern); ok {
		var fl string
		if f, ok := w.g.Value(propNode, flags); ok {
			fl = f.String()
		}
		checks = append(checks, &ir.PropertyPattern{
			Meta:     meta(ir.SuffixInnerPattern, ir.PatternMessage(label, prop, pat.String())),
			Property: prop,
			Pattern:  pat.String(),
			Flags:    fl,
		})
	}

	if hv, ok := w.g.Value(propNode, hasValue); ok {
		v := valueOf(hv)
		checks = append(checks, &ir.PropertyValueIn{
			Meta:          meta(ir.SuffixInnerHasValue, fmt.Sprintf("%s.%s must equal '%s'", label, prop, plain(v))),
			Property:      prop,
			AllowedValues: []ir.Value{v},
			OnlyIfExists:  true,
		})
	}

	if head, ok := w.g.Value(propNode, in); ok {
		allowed := w.listValues(head, shapeIRI)
		checks = append(checks, &ir.PropertyValueIn{
			Meta:          meta(ir.SuffixInnerValues, ir.ValuesMessage(label, prop, allowed)),
			Property:      prop,
			AllowedValues: allowed,
			OnlyIfExists:  true,
		})
	}

	minLen := w.optionalInt(propNode, minLength)
	maxLen := w.optionalInt(propNode, maxLength)
	if minLen != nil || maxLen != nil {
		checks = append(checks, &ir.PropertyStringLength{
			Meta:      meta(ir.SuffixInnerStrlen, ir.LengthMessage(label, prop, minLen, maxLen)),
			Property:  prop,
			MinLength: minLen,
			MaxLength: maxLen,
		})
	}

	if n, ok := w.intValue(propNode, minCount); ok && n > 0 {
		checks = append(checks, &ir.PropertyExists{
			Meta:     meta(ir.SuffixInnerExists, fmt.Sprintf("%s node must have '%s' property", label, prop)),
			Property: prop,
		})
	}

	return checks
}
