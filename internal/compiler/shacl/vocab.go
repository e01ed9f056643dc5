package shacl

import "github.com/roach88/graphlint/internal/rdf"

// NS is the SHACL namespace.
const NS = "http://www.w3.org/ns/shacl#"

// SHACL vocabulary used by the walker.
const (
	NodeShape rdf.IRI = NS + "NodeShape"

	targetClass = rdf.IRI(NS + "targetClass")
	property    = rdf.IRI(NS + "property")
	path        = rdf.IRI(NS + "path")
	inversePath = rdf.IRI(NS + "inversePath")

	minCount = rdf.IRI(NS + "minCount")
	maxCount = rdf.IRI(NS + "maxCount")
	severity = rdf.IRI(NS + "severity")
	nodeKind = rdf.IRI(NS + "nodeKind")
	node     = rdf.IRI(NS + "node")
	class    = rdf.IRI(NS + "class")
	datatype = rdf.IRI(NS + "datatype")

	in       = rdf.IRI(NS + "in")
	hasValue = rdf.IRI(NS + "hasValue")
	pattern  = rdf.IRI(NS + "pattern")
	flags    = rdf.IRI(NS + "flags")

	minLength    = rdf.IRI(NS + "minLength")
	maxLength    = rdf.IRI(NS + "maxLength")
	minInclusive = rdf.IRI(NS + "minInclusive")
	maxInclusive = rdf.IRI(NS + "maxInclusive")
	minExclusive = rdf.IRI(NS + "minExclusive")
	maxExclusive = rdf.IRI(NS + "maxExclusive")

	equals           = rdf.IRI(NS + "equals")
	disjoint         = rdf.IRI(NS + "disjoint")
	lessThan         = rdf.IRI(NS + "lessThan")
	lessThanOrEquals = rdf.IRI(NS + "lessThanOrEquals")

	uniqueLang   = rdf.IRI(NS + "uniqueLang")
	defaultValue = rdf.IRI(NS + "defaultValue")
	order        = rdf.IRI(NS + "order")

	qualifiedValueShape = rdf.IRI(NS + "qualifiedValueShape")
	qualifiedMinCount   = rdf.IRI(NS + "qualifiedMinCount")
	qualifiedMaxCount   = rdf.IRI(NS + "qualifiedMaxCount")

	closed            = rdf.IRI(NS + "closed")
	ignoredProperties = rdf.IRI(NS + "ignoredProperties")

	not  = rdf.IRI(NS + "not")
	and  = rdf.IRI(NS + "and")
	or   = rdf.IRI(NS + "or")
	xone = rdf.IRI(NS + "xone")

	kindIRI            = rdf.IRI(NS + "IRI")
	kindBlankNodeOrIRI = rdf.IRI(NS + "BlankNodeOrIRI")

	severityWarning = rdf.IRI(NS + "Warning")
	severityInfo    = rdf.IRI(NS + "Info")
)
