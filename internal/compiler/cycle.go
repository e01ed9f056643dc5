package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/graphlint/internal/ir"
)

// CycleWarning describes labels that require each other through
// mandatory relationships.
//
// Such cycles are legal: Movie needs a Person and Person needs a Movie is
// a fine schema. They matter when loading data, because no node in the
// cycle can be written alone without failing validation.
type CycleWarning struct {
	Path    []string `json:"path" yaml:"path"` // ["Movie", "Person", "Movie"]
	Message string   `json:"message" yaml:"message"`
}

// AnalyzeCycles finds cycles of required relationships (min count >= 1)
// between labels.
//
// The algorithm:
//  1. Build label -> label edges from top-level relationship cardinality
//     checks, following the direction each relationship is traversed in
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// Warnings are sorted by their first label so output is stable.
func AnalyzeCycles(plan *ir.ValidationPlan) []CycleWarning {
	graph := buildRequirementGraph(plan.Checks)
	if len(graph) == 0 {
		return []CycleWarning{}
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Path[0] < warnings[j].Path[0]
	})
	return warnings
}

// requirementGraph maps label -> labels it requires, sorted.
type requirementGraph map[string][]string

func buildRequirementGraph(checks []ir.Check) requirementGraph {
	edges := map[string]map[string]bool{}
	for _, c := range checks {
		rc, ok := c.(*ir.RelationshipCardinality)
		if !ok || rc.MinCount < 1 {
			continue
		}
		from, to := rc.TargetLabel, rc.Relationship.TargetLabel
		if from == "" || to == "" || to == "Unknown" {
			continue
		}
		if edges[from] == nil {
			edges[from] = map[string]bool{}
		}
		edges[from][to] = true
		if edges[to] == nil {
			edges[to] = map[string]bool{}
		}
	}

	graph := make(requirementGraph, len(edges))
	for from, tos := range edges {
		out := make([]string, 0, len(tos))
		for to := range tos {
			out = append(out, to)
		}
		sort.Strings(out)
		graph[from] = out
	}
	return graph
}

func hasSelfLoop(node string, graph requirementGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components. Nodes are visited in
// sorted order and each SCC is returned sorted.
func tarjanSCC(graph requirementGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph requirementGraph) CycleWarning {
	if len(scc) == 1 {
		label := scc[0]
		return CycleWarning{
			Path:    []string{label, label},
			Message: fmt.Sprintf("%s requires a relationship to another %s", label, label),
		}
	}
	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Required relationships form a cycle: %s", strings.Join(path, " → ")),
	}
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph requirementGraph) []string {
	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := map[string]bool{}

	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
