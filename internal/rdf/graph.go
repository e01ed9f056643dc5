package rdf

import "fmt"

// Triple is one subject-predicate-object statement.
type Triple struct {
	Subject   Term
	Predicate IRI
	Object    Term
}

// Graph is an in-memory set of triples. Insertion order is kept so that
// lookups return objects in document order.
type Graph struct {
	triples []Triple
	bySubj  map[Term][]int
	byPred  map[IRI][]int
	seen    map[Triple]bool
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		bySubj: make(map[Term][]int),
		byPred: make(map[IRI][]int),
		seen:   make(map[Triple]bool),
	}
}

// Add inserts a triple. Duplicates are ignored.
func (g *Graph) Add(s Term, p IRI, o Term) {
	t := Triple{Subject: s, Predicate: p, Object: o}
	if g.seen[t] {
		return
	}
	g.seen[t] = true
	idx := len(g.triples)
	g.triples = append(g.triples, t)
	g.bySubj[s] = append(g.bySubj[s], idx)
	g.byPred[p] = append(g.byPred[p], idx)
}

// Len returns the number of triples.
func (g *Graph) Len() int { return len(g.triples) }

// Objects returns every object of (s, p, ?) in insertion order.
func (g *Graph) Objects(s Term, p IRI) []Term {
	var out []Term
	for _, i := range g.bySubj[s] {
		if g.triples[i].Predicate == p {
			out = append(out, g.triples[i].Object)
		}
	}
	return out
}

// Value returns the first object of (s, p, ?).
func (g *Graph) Value(s Term, p IRI) (Term, bool) {
	for _, i := range g.bySubj[s] {
		if g.triples[i].Predicate == p {
			return g.triples[i].Object, true
		}
	}
	return nil, false
}

// Subjects returns every subject of (?, p, o) in insertion order.
func (g *Graph) Subjects(p IRI, o Term) []Term {
	var out []Term
	for _, i := range g.byPred[p] {
		if g.triples[i].Object == o {
			out = append(out, g.triples[i].Subject)
		}
	}
	return out
}

// WithPredicate returns every triple using predicate p.
func (g *Graph) WithPredicate(p IRI) []Triple {
	idx := g.byPred[p]
	out := make([]Triple, len(idx))
	for n, i := range idx {
		out[n] = g.triples[i]
	}
	return out
}

// Collection walks an RDF list starting at head and returns its members.
// rdf:nil is the empty list. Malformed or cyclic lists are errors.
func (g *Graph) Collection(head Term) ([]Term, error) {
	var items []Term
	visited := make(map[Term]bool)
	node := head
	for node != RDFNil {
		if visited[node] {
			return nil, fmt.Errorf("rdf list at %s is cyclic", head)
		}
		visited[node] = true
		first, ok := g.Value(node, RDFFirst)
		if !ok {
			return nil, fmt.Errorf("rdf list node %s has no rdf:first", node)
		}
		items = append(items, first)
		rest, ok := g.Value(node, RDFRest)
		if !ok {
			return nil, fmt.Errorf("rdf list node %s has no rdf:rest", node)
		}
		node = rest
	}
	return items, nil
}
