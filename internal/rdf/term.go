// Package rdf holds the minimal RDF model graphlint needs to read SHACL
// schemas: terms, an in-memory triple graph with lookup helpers, and a
// Turtle parser.
package rdf

import (
	"strconv"
	"strings"
)

// Well-known vocabularies.
const (
	RDFNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNS = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNS  = "http://www.w3.org/2001/XMLSchema#"
)

// Frequently used IRIs.
const (
	RDFType  IRI = RDFNS + "type"
	RDFFirst IRI = RDFNS + "first"
	RDFRest  IRI = RDFNS + "rest"
	RDFNil   IRI = RDFNS + "nil"

	RDFLangString IRI = RDFNS + "langString"

	RDFSSubClassOf IRI = RDFSNS + "subClassOf"

	XSDString  IRI = XSDNS + "string"
	XSDBoolean IRI = XSDNS + "boolean"
	XSDInteger IRI = XSDNS + "integer"
	XSDDecimal IRI = XSDNS + "decimal"
	XSDDouble  IRI = XSDNS + "double"
)

// Term is a node in an RDF graph: IRI, BlankNode or Literal.
// All implementations are comparable and usable as map keys.
type Term interface {
	rdfTerm() // Sealed
	String() string
}

// IRI is an absolute IRI.
type IRI string

func (IRI) rdfTerm() {}

func (i IRI) String() string { return string(i) }

// BlankNode is a document-scoped anonymous node.
type BlankNode string

func (BlankNode) rdfTerm() {}

func (b BlankNode) String() string { return "_:" + string(b) }

// Literal is a lexical value with a datatype or language tag.
type Literal struct {
	Lexical  string
	Datatype IRI
	Lang     string
}

func (Literal) rdfTerm() {}

func (l Literal) String() string { return l.Lexical }

// Native converts the literal to a Go value: int64 for integer types,
// float64 for decimal/float/double, bool for boolean, otherwise the
// lexical string. Literals whose lexical form does not parse stay strings.
func (l Literal) Native() any {
	switch l.Datatype {
	case XSDInteger, XSDNS + "int", XSDNS + "long", XSDNS + "short", XSDNS + "byte",
		XSDNS + "nonNegativeInteger", XSDNS + "positiveInteger",
		XSDNS + "nonPositiveInteger", XSDNS + "negativeInteger",
		XSDNS + "unsignedInt", XSDNS + "unsignedLong":
		if i, err := strconv.ParseInt(strings.TrimPrefix(l.Lexical, "+"), 10, 64); err == nil {
			return i
		}
	case XSDDecimal, XSDDouble, XSDNS + "float":
		if f, err := strconv.ParseFloat(l.Lexical, 64); err == nil {
			return f
		}
	case XSDBoolean:
		switch l.Lexical {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
	}
	return l.Lexical
}

// Int returns the literal as an integer, accepting any numeric datatype
// with an integral value.
func (l Literal) Int() (int, bool) {
	switch v := l.Native().(type) {
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Float returns the literal as a float64.
func (l Literal) Float() (float64, bool) {
	switch v := l.Native().(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Bool reports whether the literal is the boolean true.
func (l Literal) Bool() bool {
	b, ok := l.Native().(bool)
	return ok && b
}

// NewString returns a plain xsd:string literal.
func NewString(s string) Literal {
	return Literal{Lexical: s, Datatype: XSDString}
}

// NewTyped returns a literal with an explicit datatype.
func NewTyped(lexical string, datatype IRI) Literal {
	return Literal{Lexical: lexical, Datatype: datatype}
}

// NewLang returns a language-tagged string literal.
func NewLang(s, lang string) Literal {
	return Literal{Lexical: s, Datatype: RDFLangString, Lang: strings.ToLower(lang)}
}
