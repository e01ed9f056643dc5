package shacl

import (
	"log/slog"

	"github.com/roach88/graphlint/internal/ir"
	"github.com/roach88/graphlint/internal/rdf"
)

// propertyShape turns one sh:property node into checks.
func (w *walker) propertyShape(propNode rdf.Term, shapeIRI, label string) []ir.Check {
	p, ok := w.g.Value(propNode, path)
	if !ok {
		return nil
	}

	direction := ir.Outgoing
	if bn, isBlank := p.(rdf.BlankNode); isBlank {
		inv, ok := w.g.Value(bn, inversePath)
		invIRI, isIRI := inv.(rdf.IRI)
		if !ok || !isIRI {
			slog.Warn("complex sh:path is not supported, skipping", "shape", shapeIRI)
			return nil
		}
		p = invIRI
		direction = ir.Incoming
	}
	predicate, isIRI := p.(rdf.IRI)
	if !isIRI {
		slog.Warn("complex sh:path is not supported, skipping", "shape", shapeIRI)
		return nil
	}

	minC, _ := w.intValue(propNode, minCount)
	maxC := w.optionalInt(propNode, maxCount)
	sev := severityOf(w.g.Value(propNode, severity))

	if w.isRelationship(propNode) {
		return []ir.Check{w.relationshipCheck(propNode, shapeIRI, label, string(predicate), minC, maxC, sev, direction)}
	}
	return w.propertyChecks(propNode, shapeIRI, label, string(predicate), minC, sev, direction)
}

// isRelationship decides whether a property shape describes a relationship.
// An explicit sh:nodeKind wins; otherwise sh:node or sh:class imply one.
func (w *walker) isRelationship(propNode rdf.Term) bool {
	if nk, ok := w.g.Value(propNode, nodeKind); ok {
		return nk == kindIRI || nk == kindBlankNodeOrIRI
	}
	if _, ok := w.g.Value(propNode, node); ok {
		return true
	}
	if _, ok := w.g.Value(propNode, class); ok {
		return true
	}
	return false
}

func (w *walker) propertyChecks(propNode rdf.Term, shapeIRI, label, predicate string, minC int, sev ir.Severity, direction ir.Direction) []ir.Check {
	var checks []ir.Check
	prop := w.m.PropertyFor(predicate)
	optional := minC == 0
	meta := func(suffix, message string) ir.Meta {
		return ir.Meta{
			ID:          ir.CheckID(label, prop, suffix),
			Shape:       shapeIRI,
			TargetLabel: label,
			Severity:    sev,
			Message:     message,
		}
	}

	if !optional {
		checks = append(checks, &ir.PropertyExists{
			Meta:     meta(ir.SuffixExists, ir.ExistsMessage(label, prop)),
			Property: prop,
		})
	}

	if dt, ok := w.g.Value(propNode, datatype); ok {
		graphType := ir.GraphType(dt.String())
		checks = append(checks, &ir.PropertyType{
			Meta:         meta(ir.SuffixType, ir.TypeMessage(label, prop, graphType)),
			Property:     prop,
			ExpectedType: graphType,
			OnlyIfExists: optional,
		})
	}

	if head, ok := w.g.Value(propNode, in); ok {
		allowed := w.listValues(head, shapeIRI)
		checks = append(checks, &ir.PropertyValueIn{
			Meta:          meta(ir.SuffixValues, ir.ValuesMessage(label, prop, allowed)),
			Property:      prop,
			AllowedValues: allowed,
			OnlyIfExists:  optional,
		})
	}

	if hv, ok := w.g.Value(propNode, hasValue); ok {
		v := valueOf(hv)
		checks = append(checks, &ir.PropertyValueIn{
			Meta:          meta(ir.SuffixHasValue, label+"."+prop+" must have value "+plain(v)),
			Property:      prop,
			AllowedValues: []ir.Value{v},
			OnlyIfExists:  optional,
		})
	}

	if pat, ok := w.g.Value(propNode, pattern); ok {
		var fl string
		if f, ok := w.g.Value(propNode, flags); ok {
			fl = f.String()
		}
		checks = append(checks, &ir.PropertyPattern{
			Meta:         meta(ir.SuffixPattern, ir.PatternMessage(label, prop, pat.String())),
			Property:     prop,
			Pattern:      pat.String(),
			Flags:        fl,
			OnlyIfExists: optional,
		})
	}

	minLen := w.optionalInt(propNode, minLength)
	maxLen := w.optionalInt(propNode, maxLength)
	if minLen != nil || maxLen != nil {
		checks = append(checks, &ir.PropertyStringLength{
			Meta:         meta(ir.SuffixStrlen, ir.LengthMessage(label, prop, minLen, maxLen)),
			Property:     prop,
			MinLength:    minLen,
			MaxLength:    maxLen,
			OnlyIfExists: optional,
		})
	}

	minInc := w.floatValue(propNode, minInclusive)
	maxInc := w.floatValue(propNode, maxInclusive)
	minExc := w.floatValue(propNode, minExclusive)
	maxExc := w.floatValue(propNode, maxExclusive)
	if minInc != nil || maxInc != nil || minExc != nil || maxExc != nil {
		checks = append(checks, &ir.PropertyRange{
			Meta:         meta(ir.SuffixRange, ir.RangeMessage(label, prop, minInc, maxInc, minExc, maxExc)),
			Property:     prop,
			MinInclusive: minInc,
			MaxInclusive: maxInc,
			MinExclusive: minExc,
			MaxExclusive: maxExc,
			OnlyIfExists: optional,
		})
	}

	for _, pair := range []struct {
		pred rdf.IRI
		cmp  ir.Comparison
	}{
		{equals, ir.CompareEquals},
		{disjoint, ir.CompareDisjoint},
		{lessThan, ir.CompareLessThan},
		{lessThanOrEquals, ir.CompareLessThanOrEquals},
	} {
		other, ok := w.g.Value(propNode, pair.pred)
		if !ok {
			continue
		}
		otherProp := w.m.PropertyFor(other.String())
		checks = append(checks, &ir.PropertyPair{
			Meta:            meta(ir.Slug(string(pair.cmp)), ir.PairMessage(label, prop, pair.cmp, otherProp)),
			Property:        prop,
			CompareProperty: otherProp,
			Comparison:      pair.cmp,
			OnlyIfExists:    optional,
		})
	}

	if ul, ok := w.g.Value(propNode, uniqueLang); ok {
		if lit, isLit := ul.(rdf.Literal); isLit && lit.Bool() {
			slog.Warn("sh:uniqueLang cannot be enforced on a property graph; acknowledged only",
				"shape", shapeIRI, "path", predicate)
			checks = append(checks, &ir.UniqueLang{
				Meta: ir.Meta{
					ID:          ir.CheckID(label, prop, ir.SuffixUniqueLang),
					Shape:       shapeIRI,
					TargetLabel: label,
					Severity:    ir.SeverityInfo,
					Message:     ir.UniqueLangMessage(label, prop),
				},
				Property: prop,
			})
		}
	}

	w.annotate(propNode, checks, prop)

	if q := w.qualified(propNode, shapeIRI, label, predicate, prop, sev, direction); q != nil {
		checks = append(checks, q)
	}

	return checks
}

// annotate copies sh:defaultValue and sh:order onto the last check emitted
// for the property.
func (w *walker) annotate(propNode rdf.Term, checks []ir.Check, prop string) {
	dv, hasDefault := w.g.Value(propNode, defaultValue)
	ord := w.optionalInt(propNode, order)
	if (!hasDefault && ord == nil) || len(checks) == 0 {
		return
	}
	last, ok := checks[len(checks)-1].(ir.PropertyCheck)
	if !ok || last.PropertyName() != prop {
		return
	}
	if hasDefault {
		last.Base().DefaultValue = valueOf(dv)
	}
	last.Base().DisplayOrder = ord
}

// relationshipCheck resolves the target label through sh:node (via the
// node shape's target class) or sh:class, and widens it to the subclass
// closure when one is known.
func (w *walker) relationshipCheck(propNode rdf.Term, shapeIRI, label, predicate string,
	minC int, maxC *int, sev ir.Severity, direction ir.Direction) ir.Check {

	relType := w.m.RelationshipFor(predicate)

	targetLabel := "Unknown"
	var targetClassIRI string
	if sn, ok := w.g.Value(propNode, node); ok {
		if tc, ok := w.g.Value(sn, targetClass); ok {
			targetClassIRI = tc.String()
		} else {
			targetClassIRI = sn.String()
		}
		targetLabel = w.m.LabelFor(targetClassIRI)
	} else if sc, ok := w.g.Value(propNode, class); ok {
		targetClassIRI = sc.String()
		targetLabel = w.m.LabelFor(targetClassIRI)
	}

	var acceptable []string
	if targetClassIRI != "" {
		acceptable = w.hierarchy[targetClassIRI]
	}

	return &ir.RelationshipCardinality{
		Meta: ir.Meta{
			ID:          ir.CheckID(label, relType, ir.SuffixCardinality),
			Shape:       shapeIRI,
			TargetLabel: label,
			Severity:    sev,
			Message:     ir.CardinalityMessage(label, relType, targetLabel, minC, maxC),
		},
		Relationship: ir.RelationshipTarget{
			Type:        relType,
			Direction:   direction,
			TargetLabel: targetLabel,
		},
		MinCount:         minC,
		MaxCount:         maxC,
		AcceptableLabels: acceptable,
	}
}

// qualified builds a qualified cardinality check from
// sh:qualifiedValueShape. Supported inner constraints: sh:datatype,
// sh:class and sh:in. A class filter follows the property's direction.
func (w *walker) qualified(propNode rdf.Term, shapeIRI, label, predicate, prop string, sev ir.Severity, direction ir.Direction) ir.Check {
	qvs, ok := w.g.Value(propNode, qualifiedValueShape)
	if !ok {
		return nil
	}
	qmin := w.optionalInt(propNode, qualifiedMinCount)
	qmax := w.optionalInt(propNode, qualifiedMaxCount)

	filterMeta := func(suffix, targetLabel, message string) ir.Meta {
		return ir.Meta{
			ID:          ir.CheckID(label, prop, suffix),
			Shape:       shapeIRI,
			TargetLabel: targetLabel,
			Severity:    ir.SeverityViolation,
			Message:     message,
		}
	}

	var filter ir.Check
	var rel *ir.RelationshipTarget
	if dt, ok := w.g.Value(qvs, datatype); ok {
		graphType := ir.GraphType(dt.String())
		filter = &ir.PropertyType{
			Meta:         filterMeta(ir.SuffixQFilterType, label, "Qualified filter: type must be "+graphType),
			Property:     prop,
			ExpectedType: graphType,
		}
	} else if cls, ok := w.g.Value(qvs, class); ok {
		innerLabel := w.m.LabelFor(cls.String())
		filter = &ir.PropertyType{
			Meta:         filterMeta(ir.SuffixQFilterClass, innerLabel, "Qualified filter: must be "+innerLabel),
			Property:     prop,
			ExpectedType: innerLabel,
		}
		rel = &ir.RelationshipTarget{
			Type:        w.m.RelationshipFor(predicate),
			Direction:   direction,
			TargetLabel: innerLabel,
		}
	} else if head, ok := w.g.Value(qvs, in); ok {
		allowed := w.listValues(head, shapeIRI)
		filter = &ir.PropertyValueIn{
			Meta:          filterMeta(ir.SuffixQFilterValues, label, "Qualified filter: value must be one of "+ir.FormatValueList(allowed)),
			Property:      prop,
			AllowedValues: allowed,
		}
	} else {
		slog.Warn("sh:qualifiedValueShape inner shape type not supported, skipping",
			"shape", shapeIRI, "property", prop)
		return nil
	}

	return &ir.QualifiedCardinality{
		Meta: ir.Meta{
			ID:          ir.CheckID(label, prop, ir.SuffixQualified),
			Shape:       shapeIRI,
			TargetLabel: label,
			Severity:    sev,
			Message:     ir.QualifiedMessage(label, prop, qmin, qmax),
		},
		Property:     prop,
		Filter:       filter,
		Relationship: rel,
		QualifiedMin: qmin,
		QualifiedMax: qmax,
	}
}

// plain renders a value without quotes for messages.
func plain(v ir.Value) string {
	if s, ok := v.(ir.String); ok {
		return string(s)
	}
	return ir.FormatValue(v)
}
