package shacl

import (
	"github.com/roach88/graphlint/internal/ir"
	"github.com/roach88/graphlint/internal/rdf"
)

// buildHierarchy maps every class that takes part in an rdfs:subClassOf
// edge to the labels of itself and all of its descendants, in preorder.
// Subclass cycles terminate at the first revisit.
func buildHierarchy(g *rdf.Graph, m *ir.Mapping) map[string][]string {
	children := make(map[string][]string)
	var classes []string
	seen := make(map[string]bool)
	note := func(c string) {
		if !seen[c] {
			seen[c] = true
			classes = append(classes, c)
		}
	}

	for _, t := range g.WithPredicate(rdf.RDFSSubClassOf) {
		child, parent := t.Subject.String(), t.Object.String()
		children[parent] = append(children[parent], child)
		note(parent)
		note(child)
	}

	out := make(map[string][]string, len(classes))
	for _, c := range classes {
		var labels []string
		visited := make(map[string]bool)
		var descend func(string)
		descend = func(n string) {
			if visited[n] {
				return
			}
			visited[n] = true
			labels = append(labels, m.LabelFor(n))
			for _, ch := range children[n] {
				descend(ch)
			}
		}
		descend(c)
		out[c] = labels
	}
	return out
}
