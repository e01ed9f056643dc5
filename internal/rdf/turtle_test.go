package rdf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ex = "http://example.org/movies#"

func TestParseTurtleBasics(t *testing.T) {
	src := `
@prefix ex: <http://example.org/movies#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

# a comment
ex:Movie a ex:Class ;
    ex:title "Heat" , 'Ronin' ;
    ex:released 1995 ;
    ex:rating 8.3 ;
    ex:budget 6.0e7 ;
    ex:color false ;
    ex:tagline "A Los Angeles crime saga"@EN ;
    ex:born "1940-08-17"^^xsd:date .
`
	g, err := ParseTurtle(src)
	require.NoError(t, err)

	movie := IRI(ex + "Movie")

	typ, ok := g.Value(movie, RDFType)
	require.True(t, ok)
	assert.Equal(t, IRI(ex+"Class"), typ)

	titles := g.Objects(movie, IRI(ex+"title"))
	assert.Equal(t, []Term{NewString("Heat"), NewString("Ronin")}, titles)

	released, _ := g.Value(movie, IRI(ex+"released"))
	assert.Equal(t, int64(1995), released.(Literal).Native())

	rating, _ := g.Value(movie, IRI(ex+"rating"))
	assert.Equal(t, 8.3, rating.(Literal).Native())

	budget, _ := g.Value(movie, IRI(ex+"budget"))
	assert.Equal(t, 6.0e7, budget.(Literal).Native())

	color, _ := g.Value(movie, IRI(ex+"color"))
	assert.Equal(t, false, color.(Literal).Native())

	tagline, _ := g.Value(movie, IRI(ex+"tagline"))
	assert.Equal(t, "en", tagline.(Literal).Lang)

	born, _ := g.Value(movie, IRI(ex+"born"))
	assert.Equal(t, IRI(XSDNS+"date"), born.(Literal).Datatype)
	assert.Equal(t, "1940-08-17", born.(Literal).Native())
}

func TestParseTurtleSparqlDirectivesAndBase(t *testing.T) {
	src := `
BASE <http://example.org/base/>
PREFIX ex: <movies#>
<Movie> ex:knows <../Other> .
`
	g, err := ParseTurtle(src)
	require.NoError(t, err)

	objs := g.Objects(IRI("http://example.org/base/Movie"), IRI("http://example.org/base/movies#knows"))
	require.Len(t, objs, 1)
	assert.Equal(t, IRI("http://example.org/Other"), objs[0])
}

func TestParseTurtleBlankNodesAndCollections(t *testing.T) {
	src := `
@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix ex: <http://example.org/movies#> .

ex:GenreShape sh:property [
    sh:path ex:rating ;
    sh:in ( "G" "PG" "PG-13" ) ;
] ;
    sh:ignoredProperties ( ) ;
    sh:node _:b1 .

_:b1 sh:path ex:name .
`
	g, err := ParseTurtle(src)
	require.NoError(t, err)

	shape := IRI(ex + "GenreShape")
	prop, ok := g.Value(shape, IRI("http://www.w3.org/ns/shacl#property"))
	require.True(t, ok)
	_, isBlank := prop.(BlankNode)
	assert.True(t, isBlank)

	list, ok := g.Value(prop, IRI("http://www.w3.org/ns/shacl#in"))
	require.True(t, ok)
	items, err := g.Collection(list)
	require.NoError(t, err)
	assert.Equal(t, []Term{NewString("G"), NewString("PG"), NewString("PG-13")}, items)

	empty, ok := g.Value(shape, IRI("http://www.w3.org/ns/shacl#ignoredProperties"))
	require.True(t, ok)
	assert.Equal(t, RDFNil, empty)
	items, err = g.Collection(empty)
	require.NoError(t, err)
	assert.Empty(t, items)

	node, _ := g.Value(shape, IRI("http://www.w3.org/ns/shacl#node"))
	path, ok := g.Value(node, IRI("http://www.w3.org/ns/shacl#path"))
	require.True(t, ok)
	assert.Equal(t, IRI(ex+"name"), path)
}

func TestParseTurtleStrings(t *testing.T) {
	src := `@prefix ex: <http://example.org/movies#> .
ex:a ex:p """multi
line "quoted" text""" ;
     ex:q "tab\there é" ;
     ex:r '''it''s''' .
`
	g, err := ParseTurtle(src)
	require.NoError(t, err)

	p, _ := g.Value(IRI(ex+"a"), IRI(ex+"p"))
	assert.Equal(t, "multi\nline \"quoted\" text", p.String())

	q, _ := g.Value(IRI(ex+"a"), IRI(ex+"q"))
	assert.Equal(t, "tab\there é", q.String())

	r, _ := g.Value(IRI(ex+"a"), IRI(ex+"r"))
	assert.Equal(t, "it''s", r.String())
}

func TestParseTurtleNumberBeforeDot(t *testing.T) {
	g, err := ParseTurtle(`@prefix ex: <http://example.org/movies#> . ex:a ex:min 5.`)
	require.NoError(t, err)

	v, ok := g.Value(IRI(ex+"a"), IRI(ex+"min"))
	require.True(t, ok)
	assert.Equal(t, NewTyped("5", XSDInteger), v)
}

func TestParseTurtleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"undefined prefix", `ex:a ex:b ex:c .`, `undefined prefix "ex"`},
		{"missing dot", `<http://a> <http://b> <http://c>`, "expected '.'"},
		{"unterminated string", `<http://a> <http://b> "oops .`, "unterminated string"},
		{"unterminated IRI", `<http://a`, "unterminated IRI"},
		{"literal predicate", `<http://a> "b" <http://c> .`, "expected predicate"},
		{"stray word", `<http://a> <http://b> banana .`, `unexpected word "banana"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTurtle(tt.src)
			require.Error(t, err)
			var se *SyntaxError
			require.True(t, errors.As(err, &se), "expected *SyntaxError, got %T", err)
			assert.Contains(t, se.Message, tt.msg)
			assert.Positive(t, se.Line)
		})
	}
}

func TestCollectionCycleIsError(t *testing.T) {
	g := NewGraph()
	a, b := BlankNode("a"), BlankNode("b")
	g.Add(a, RDFFirst, NewString("x"))
	g.Add(a, RDFRest, b)
	g.Add(b, RDFFirst, NewString("y"))
	g.Add(b, RDFRest, a)

	_, err := g.Collection(a)
	assert.ErrorContains(t, err, "cyclic")
}

func TestGraphSubjectsAndDuplicates(t *testing.T) {
	g := NewGraph()
	s1, s2 := IRI("s1"), IRI("s2")
	g.Add(s1, RDFType, IRI("C"))
	g.Add(s2, RDFType, IRI("C"))
	g.Add(s1, RDFType, IRI("C"))

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []Term{s1, s2}, g.Subjects(RDFType, IRI("C")))
	assert.Len(t, g.WithPredicate(RDFType), 2)
}

func TestPrefixes(t *testing.T) {
	prefixes, err := Prefixes("@prefix sh: <http://www.w3.org/ns/shacl#> .\nPREFIX ex: <http://example.org/>\n")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"sh": "http://www.w3.org/ns/shacl#",
		"ex": "http://example.org/",
	}, prefixes)
}

func TestLiteralConversions(t *testing.T) {
	n, ok := NewTyped("3", XSDInteger).Int()
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	f, ok := NewTyped("2", XSDInteger).Float()
	assert.True(t, ok)
	assert.Equal(t, 2.0, f)

	assert.True(t, NewTyped("true", XSDBoolean).Bool())
	assert.False(t, NewString("true").Bool())
	assert.Equal(t, "abc", NewTyped("abc", XSDInteger).Native(), "bad lexical forms stay strings")
}
