package shex

import "github.com/roach88/graphlint/internal/rdf"

// Unbounded is the maximum of an unbounded cardinality.
const Unbounded = -1

// Schema is a parsed ShExC document. IRIs are fully resolved.
type Schema struct {
	Base     string
	Prefixes map[string]string
	Start    ShapeExpr
	Shapes   []*ShapeDecl
}

// Lookup returns the declaration labelled label.
func (s *Schema) Lookup(label string) (*ShapeDecl, bool) {
	for _, d := range s.Shapes {
		if d.Label == label {
			return d, true
		}
	}
	return nil, false
}

// ShapeDecl binds a label to a shape expression.
type ShapeDecl struct {
	Label string
	Expr  ShapeExpr
	Line  int
}

// ShapeExpr is one of *ShapeAnd, *ShapeOr, *ShapeNot, *ShapeRef,
// *NodeConstraint, *Shape or *AnyShape.
type ShapeExpr interface {
	shapeExpr()
}

type ShapeAnd struct{ Operands []ShapeExpr }

type ShapeOr struct{ Operands []ShapeExpr }

type ShapeNot struct{ Operand ShapeExpr }

// ShapeRef is @label.
type ShapeRef struct{ Label string }

// AnyShape is '.', which every node satisfies.
type AnyShape struct{}

// NodeKind restricts the kind of RDF term a value must be.
type NodeKind string

const (
	KindNone       NodeKind = ""
	KindLiteral    NodeKind = "LITERAL"
	KindIRI        NodeKind = "IRI"
	KindBNode      NodeKind = "BNODE"
	KindNonLiteral NodeKind = "NONLITERAL"
)

// NodeConstraint constrains a single value.
type NodeConstraint struct {
	Kind     NodeKind
	Datatype string
	// Values holds a value set: IRIs and literals.
	Values []rdf.Term
	Facets Facets
}

// Facets are the string and numeric facets of a node constraint.
type Facets struct {
	Length       *int
	MinLength    *int
	MaxLength    *int
	Pattern      string
	Flags        string
	HasPattern   bool
	MinInclusive *float64
	MaxInclusive *float64
	MinExclusive *float64
	MaxExclusive *float64
}

// Shape is a '{ ... }' block.
type Shape struct {
	Closed bool
	Extra  []string
	Expr   TripleExpr // nil for an empty shape
}

func (*ShapeAnd) shapeExpr()       {}
func (*ShapeOr) shapeExpr()        {}
func (*ShapeNot) shapeExpr()       {}
func (*ShapeRef) shapeExpr()       {}
func (*AnyShape) shapeExpr()       {}
func (*NodeConstraint) shapeExpr() {}
func (*Shape) shapeExpr()          {}

// TripleExpr is one of *EachOf, *OneOf or *TripleConstraint.
type TripleExpr interface {
	tripleExpr()
}

// Cardinality is {Min, Max}; Max is Unbounded for '*' and '+'.
type Cardinality struct {
	Min int
	Max int
}

// One is the default cardinality {1,1}.
var One = Cardinality{Min: 1, Max: 1}

// EachOf is a ';'-separated group.
type EachOf struct {
	Exprs []TripleExpr
	Card  Cardinality
}

// OneOf is a '|'-separated choice.
type OneOf struct {
	Exprs []TripleExpr
	Card  Cardinality
}

// TripleConstraint constrains the values of one predicate.
type TripleConstraint struct {
	Predicate string
	Inverse   bool
	ValueExpr ShapeExpr // nil when the value is unconstrained
	Card      Cardinality
	Line      int
}

func (*EachOf) tripleExpr()           {}
func (*OneOf) tripleExpr()            {}
func (*TripleConstraint) tripleExpr() {}
