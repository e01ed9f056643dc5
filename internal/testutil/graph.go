package testutil

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/roach88/graphlint/internal/ir"
)

// Node is a labelled property graph node.
type Node struct {
	ID     string         `yaml:"id"`
	Labels []string       `yaml:"labels"`
	Props  map[string]any `yaml:"properties"`
}

// Rel is a directed, typed relationship.
type Rel struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Fixture is the serialized form of a graph.
type Fixture struct {
	Nodes         []Node `yaml:"nodes"`
	Relationships []Rel  `yaml:"relationships"`
}

// MemoryGraph implements engine.Session over an in-memory graph.
//
// Thread-safety: Run is safe for concurrent use. Build the graph and
// register checks before running queries.
type MemoryGraph struct {
	nodes  []*Node
	byID   map[string]*Node
	rels   []*Rel
	checks map[string]ir.Check
	fail   map[string]error

	mu      sync.Mutex
	queries []string
}

// NewMemoryGraph returns an empty graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		byID:   make(map[string]*Node),
		checks: make(map[string]ir.Check),
		fail:   make(map[string]error),
	}
}

// FromFixture builds a graph from f. Relationship ids default to r1, r2...
func FromFixture(f Fixture) (*MemoryGraph, error) {
	g := NewMemoryGraph()
	for _, n := range f.Nodes {
		g.AddNode(n.ID, n.Labels, n.Props)
	}
	for i, r := range f.Relationships {
		if r.ID == "" {
			r.ID = fmt.Sprintf("r%d", i+1)
		}
		if err := g.AddRel(r.ID, r.Type, r.From, r.To); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddNode adds a node. A nil props map means no properties.
func (g *MemoryGraph) AddNode(id string, labels []string, props map[string]any) *MemoryGraph {
	if props == nil {
		props = map[string]any{}
	}
	n := &Node{ID: id, Labels: labels, Props: props}
	g.nodes = append(g.nodes, n)
	g.byID[id] = n
	return g
}

// AddRel adds a relationship between two existing nodes.
func (g *MemoryGraph) AddRel(id, typ, from, to string) error {
	if g.byID[from] == nil {
		return fmt.Errorf("relationship %s: unknown source node %q", id, from)
	}
	if g.byID[to] == nil {
		return fmt.Errorf("relationship %s: unknown target node %q", id, to)
	}
	g.rels = append(g.rels, &Rel{ID: id, Type: typ, From: from, To: to})
	return nil
}

// Register makes the plan's top-level checks answerable by Run.
func (g *MemoryGraph) Register(plan *ir.ValidationPlan) *MemoryGraph {
	for _, c := range plan.Checks {
		g.checks[c.Base().ID] = c
	}
	return g
}

// FailCheck makes the query of check id fail with err.
func (g *MemoryGraph) FailCheck(id string, err error) *MemoryGraph {
	g.fail[id] = err
	return g
}

// Queries returns every query Run received, in arrival order.
func (g *MemoryGraph) Queries() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.queries...)
}

// RanCheck reports whether the query of check id was executed.
func (g *MemoryGraph) RanCheck(id string) bool {
	for _, q := range g.Queries() {
		if got, ok := checkID(q); ok && got == id {
			return true
		}
	}
	return false
}

const identPattern = "(`(?:[^`]|``)*`|[A-Za-z_][A-Za-z0-9_]*)"

var (
	countQuery     = regexp.MustCompile(`^MATCH \(n:` + identPattern + `\)\nRETURN count\(n\) AS cnt$`)
	propCountQuery = regexp.MustCompile(`^MATCH \(n:` + identPattern + `\)\nWHERE n\.` + identPattern + ` IS NOT NULL\nRETURN count\(n\) AS cnt$`)
	checkIDColumn  = regexp.MustCompile(`'((?:[^'\\]|\\.)*)' AS check_id`)
	unescape       = strings.NewReplacer(`\'`, `'`, `\\`, `\`)
)

func unquoteIdent(s string) string {
	if strings.HasPrefix(s, "`") {
		return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
	}
	return s
}

func checkID(query string) (string, bool) {
	m := checkIDColumn.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}
	return unescape.Replace(m[1]), true
}

// Run implements engine.Session.
func (g *MemoryGraph) Run(ctx context.Context, query string) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.queries = append(g.queries, query)
	g.mu.Unlock()

	if m := countQuery.FindStringSubmatch(query); m != nil {
		return countRow(len(g.withLabel(unquoteIdent(m[1])))), nil
	}
	if m := propCountQuery.FindStringSubmatch(query); m != nil {
		prop := unquoteIdent(m[2])
		n := 0
		for _, node := range g.withLabel(unquoteIdent(m[1])) {
			if _, ok := node.prop(prop); ok {
				n++
			}
		}
		return countRow(n), nil
	}

	id, ok := checkID(query)
	if !ok {
		return nil, fmt.Errorf("memory graph: unrecognised query:\n%s", query)
	}
	if err := g.fail[id]; err != nil {
		return nil, err
	}
	c, ok := g.checks[id]
	if !ok {
		return nil, fmt.Errorf("memory graph: no registered check %q", id)
	}
	return g.evaluate(c)
}

func countRow(n int) []map[string]any {
	return []map[string]any{{"cnt": int64(n)}}
}

func (g *MemoryGraph) withLabel(label string) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.HasLabel(label) {
			out = append(out, n)
		}
	}
	return out
}

// HasLabel reports whether n carries label.
func (n *Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func (n *Node) prop(name string) (any, bool) {
	v, ok := n.Props[name]
	if v == nil {
		return nil, false
	}
	return v, ok
}
