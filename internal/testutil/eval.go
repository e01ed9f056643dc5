package testutil

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/roach88/graphlint/internal/backend"
	"github.com/roach88/graphlint/internal/ir"
)

type row = map[string]any

// evaluate returns the rows the compiled query of c would return.
func (g *MemoryGraph) evaluate(c ir.Check) ([]row, error) {
	switch chk := c.(type) {
	case *ir.PropertyExists:
		return g.nodeRows(chk.TargetLabel, chk.ID, func(n *Node) (row, bool) {
			_, ok := n.prop(chk.Property)
			return nil, !ok
		}), nil
	case *ir.PropertyType:
		return g.nodeRows(chk.TargetLabel, chk.ID, func(n *Node) (row, bool) {
			v, ok := n.prop(chk.Property)
			return row{"actual_value": v}, ok && !typeMatches(v, chk.ExpectedType)
		}), nil
	case *ir.PropertyValueIn:
		return g.nodeRows(chk.TargetLabel, chk.ID, func(n *Node) (row, bool) {
			v, ok := n.prop(chk.Property)
			return row{"actual_value": v}, ok && !in(v, chk.AllowedValues)
		}), nil
	case *ir.PropertyPattern:
		re, err := compilePattern(chk.Pattern, chk.Flags)
		if err != nil {
			return nil, err
		}
		return g.nodeRows(chk.TargetLabel, chk.ID, func(n *Node) (row, bool) {
			v, ok := n.prop(chk.Property)
			s, isString := v.(string)
			return row{"actual_value": v}, ok && isString && !re.MatchString(s)
		}), nil
	case *ir.PropertyStringLength:
		return g.nodeRows(chk.TargetLabel, chk.ID, func(n *Node) (row, bool) {
			v, _ := n.prop(chk.Property)
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			size := utf8.RuneCountInString(s)
			return row{"actual_value": s, "actual_length": int64(size)}, !lengthOK(size, chk.MinLength, chk.MaxLength)
		}), nil
	case *ir.PropertyRange:
		return g.nodeRows(chk.TargetLabel, chk.ID, func(n *Node) (row, bool) {
			v, _ := n.prop(chk.Property)
			f, ok := number(v)
			return row{"actual_value": v}, ok && !rangeOK(f, chk)
		}), nil
	case *ir.PropertyPair:
		return g.nodeRows(chk.TargetLabel, chk.ID, func(n *Node) (row, bool) {
			a, okA := n.prop(chk.Property)
			b, okB := n.prop(chk.CompareProperty)
			if !okA || !okB {
				return nil, false
			}
			return row{"value1": a, "value2": b}, !pairHolds(a, b, chk.Comparison)
		}), nil
	case *ir.RelationshipCardinality:
		return g.nodeRows(chk.TargetLabel, chk.ID, func(n *Node) (row, bool) {
			cnt := g.hops(n, chk.Relationship, targetLabels(chk.Relationship, chk.AcceptableLabels))
			return row{"actual_count": int64(cnt)}, !countOK(cnt, ir.Ptr(chk.MinCount), chk.MaxCount)
		}), nil
	case *ir.RelationshipEndpoint:
		return g.endpointRows(chk), nil
	case *ir.QualifiedCardinality:
		return g.nodeRows(chk.TargetLabel, chk.ID, func(n *Node) (row, bool) {
			cnt := 0
			if chk.Relationship != nil {
				cnt = g.hops(n, *chk.Relationship, targetLabels(*chk.Relationship, nil))
			} else if satisfies(n, chk.Filter) {
				cnt = 1
			}
			return row{"qualified_count": int64(cnt)}, !countOK(cnt, chk.QualifiedMin, chk.QualifiedMax)
		}), nil
	case *ir.Logical:
		return g.nodeRows(chk.TargetLabel, chk.ID, func(n *Node) (row, bool) {
			sat := 0
			for _, sub := range chk.SubChecks {
				if satisfies(n, sub) {
					sat++
				}
			}
			switch chk.Op {
			case ir.OpNot:
				return nil, len(chk.SubChecks) > 0 && sat == len(chk.SubChecks)
			case ir.OpAnd:
				return nil, sat < len(chk.SubChecks)
			case ir.OpOr:
				return nil, sat == 0
			}
			return row{"satisfied_count": int64(sat)}, sat != 1
		}), nil
	case *ir.UndeclaredLabels:
		return g.undeclaredLabelRows(chk), nil
	case *ir.UndeclaredRelationshipTypes:
		return g.undeclaredRelRows(chk), nil
	case *ir.UndeclaredProperties:
		return g.undeclaredPropRows(chk), nil
	case *ir.EmptyShape:
		if len(g.withLabel(chk.TargetLabel)) > 0 {
			return nil, nil
		}
		return []row{{
			"node_id":        "none",
			"labels":         []any{chk.TargetLabel},
			"instance_count": int64(0),
			"check_id":       chk.ID,
		}}, nil
	}
	return nil, fmt.Errorf("memory graph: cannot evaluate %s", c.Kind())
}

// nodeRows applies test to each node with label, in insertion order, and
// returns a row for every node it flags.
func (g *MemoryGraph) nodeRows(label, id string, test func(*Node) (row, bool)) []row {
	var out []row
	for _, n := range g.withLabel(label) {
		extra, flagged := test(n)
		if !flagged {
			continue
		}
		r := row{"node_id": n.ID, "labels": labelList(n.Labels), "check_id": id}
		for k, v := range extra {
			r[k] = v
		}
		out = append(out, r)
	}
	return out
}

func labelList(ls []string) []any {
	out := make([]any, len(ls))
	for i, l := range ls {
		out[i] = l
	}
	return out
}

// targetLabels is the set of labels an adjacent node may carry. Nil
// means any node.
func targetLabels(rel ir.RelationshipTarget, acceptable []string) []string {
	if len(acceptable) > 0 {
		return acceptable
	}
	if rel.TargetLabel == "" || rel.TargetLabel == "Unknown" {
		return nil
	}
	return []string{rel.TargetLabel}
}

// hops counts relationships of rel's type between n and a node carrying
// one of labels.
func (g *MemoryGraph) hops(n *Node, rel ir.RelationshipTarget, labels []string) int {
	cnt := 0
	for _, r := range g.rels {
		if r.Type != rel.Type {
			continue
		}
		near, far := r.From, r.To
		if rel.Direction == ir.Incoming {
			near, far = r.To, r.From
		}
		if near != n.ID {
			continue
		}
		if labels == nil || hasAny(g.byID[far], labels) {
			cnt++
		}
	}
	return cnt
}

func hasAny(n *Node, labels []string) bool {
	for _, l := range labels {
		if n.HasLabel(l) {
			return true
		}
	}
	return false
}

func (g *MemoryGraph) endpointRows(c *ir.RelationshipEndpoint) []row {
	var out []row
	for _, r := range g.rels {
		if r.Type != c.Relationship.Type {
			continue
		}
		s, t := g.byID[r.From], g.byID[r.To]
		if c.Relationship.Direction == ir.Incoming {
			s, t = t, s
		}
		ok := s.HasLabel(c.TargetLabel)
		if labels := targetLabels(c.Relationship, nil); labels != nil {
			ok = ok && hasAny(t, labels)
		}
		if ok {
			continue
		}
		out = append(out, row{
			"rel_id":        r.ID,
			"rel_type":      r.Type,
			"source_labels": labelList(s.Labels),
			"target_labels": labelList(t.Labels),
			"check_id":      c.ID,
		})
	}
	return out
}

func (g *MemoryGraph) undeclaredLabelRows(c *ir.UndeclaredLabels) []row {
	allowed := set(c.AllowedLabels)
	var out []row
	for _, label := range g.labels() {
		if allowed[label] {
			continue
		}
		n := g.withLabel(label)[0]
		out = append(out, row{
			"node_id":          n.ID,
			"labels":           []any{label},
			"undeclared_label": label,
			"check_id":         c.ID,
		})
	}
	return out
}

func (g *MemoryGraph) undeclaredRelRows(c *ir.UndeclaredRelationshipTypes) []row {
	allowed := set(c.AllowedRelationships)
	seen := make(map[string]bool)
	var types []string
	for _, r := range g.rels {
		if !seen[r.Type] {
			seen[r.Type] = true
			types = append(types, r.Type)
		}
	}
	sort.Strings(types)

	var out []row
	for _, typ := range types {
		if allowed[typ] {
			continue
		}
		for _, r := range g.rels {
			if r.Type != typ {
				continue
			}
			start := g.byID[r.From]
			out = append(out, row{
				"node_id":         start.ID,
				"labels":          labelList(start.Labels),
				"undeclared_type": typ,
				"check_id":        c.ID,
			})
			break
		}
	}
	return out
}

func (g *MemoryGraph) undeclaredPropRows(c *ir.UndeclaredProperties) []row {
	allowed := set(c.AllowedProperties)
	var out []row
	for _, n := range g.withLabel(c.TargetLabel) {
		keys := make([]string, 0, len(n.Props))
		for k := range n.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if allowed[k] {
				continue
			}
			out = append(out, row{
				"node_id":             n.ID,
				"labels":              labelList(n.Labels),
				"undeclared_property": k,
				"check_id":            c.ID,
			})
		}
	}
	return out
}

// labels returns every label in the graph, sorted.
func (g *MemoryGraph) labels() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range g.nodes {
		for _, l := range n.Labels {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	sort.Strings(out)
	return out
}

func set(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

// satisfies is the Go rendition of a check used as a condition: value
// conditions never hold on an absent property.
func satisfies(n *Node, c ir.Check) bool {
	switch chk := c.(type) {
	case *ir.PropertyExists:
		_, ok := n.prop(chk.Property)
		return ok
	case *ir.PropertyType:
		v, ok := n.prop(chk.Property)
		return ok && typeMatches(v, chk.ExpectedType)
	case *ir.PropertyValueIn:
		v, ok := n.prop(chk.Property)
		return ok && in(v, chk.AllowedValues)
	case *ir.PropertyPattern:
		v, _ := n.prop(chk.Property)
		s, ok := v.(string)
		if !ok {
			return false
		}
		re, err := compilePattern(chk.Pattern, chk.Flags)
		return err == nil && re.MatchString(s)
	case *ir.PropertyStringLength:
		v, _ := n.prop(chk.Property)
		s, ok := v.(string)
		return ok && lengthOK(utf8.RuneCountInString(s), chk.MinLength, chk.MaxLength)
	case *ir.PropertyRange:
		v, _ := n.prop(chk.Property)
		f, ok := number(v)
		return ok && rangeOK(f, chk)
	case *ir.PropertyPair:
		a, okA := n.prop(chk.Property)
		b, okB := n.prop(chk.CompareProperty)
		return okA && okB && pairHolds(a, b, chk.Comparison)
	case *ir.Logical:
		if len(chk.SubChecks) == 0 {
			return true
		}
		sat := 0
		for _, sub := range chk.SubChecks {
			if satisfies(n, sub) {
				sat++
			}
		}
		switch chk.Op {
		case ir.OpNot:
			return sat < len(chk.SubChecks)
		case ir.OpAnd:
			return sat == len(chk.SubChecks)
		case ir.OpOr:
			return sat > 0
		}
		return sat == 1
	}
	return false
}

// typeMatches runs the Cypher type test against what Neo4j's valueType
// would report for v.
func typeMatches(v any, graphType string) bool {
	return backend.Cypher.Accepts(valueType(v), graphType)
}

// valueType mirrors Neo4j's valueType() for the Go values the driver
// returns.
func valueType(v any) string {
	switch v.(type) {
	case string:
		return "STRING NOT NULL"
	case int, int32, int64:
		return "INTEGER NOT NULL"
	case float64:
		return "FLOAT NOT NULL"
	case bool:
		return "BOOLEAN NOT NULL"
	case dbtype.Date:
		return "DATE NOT NULL"
	case time.Time:
		return "ZONED DATETIME NOT NULL"
	case dbtype.LocalDateTime:
		return "LOCAL DATETIME NOT NULL"
	case dbtype.Duration:
		return "DURATION NOT NULL"
	}
	return "ANY"
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func in(v any, allowed []ir.Value) bool {
	for _, a := range allowed {
		if equal(v, a.Native()) {
			return true
		}
	}
	return false
}

// equal compares numbers by value across integer and float types.
func equal(a, b any) bool {
	fa, okA := number(a)
	fb, okB := number(b)
	if okA && okB {
		return fa == fb
	}
	return a == b
}

func less(a, b any) (bool, bool) {
	fa, okA := number(a)
	fb, okB := number(b)
	if okA && okB {
		return fa < fb, true
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return sa < sb, true
	}
	return false, false
}

func pairHolds(a, b any, cmp ir.Comparison) bool {
	switch cmp {
	case ir.CompareEquals:
		return equal(a, b)
	case ir.CompareDisjoint:
		return !equal(a, b)
	case ir.CompareLessThan:
		lt, ok := less(a, b)
		return ok && lt
	case ir.CompareLessThanOrEquals:
		lt, ok := less(a, b)
		return ok && (lt || equal(a, b))
	}
	return false
}

func compilePattern(pattern, flags string) (*regexp.Regexp, error) {
	if strings.Contains(flags, "i") {
		pattern = "(?i)" + pattern
	}
	// =~ matches the whole string.
	return regexp.Compile("^(?:" + pattern + ")$")
}

func lengthOK(size int, minLen, maxLen *int) bool {
	if minLen != nil && size < *minLen {
		return false
	}
	return maxLen == nil || size <= *maxLen
}

func rangeOK(f float64, c *ir.PropertyRange) bool {
	switch {
	case c.MinInclusive != nil && f < *c.MinInclusive:
		return false
	case c.MaxInclusive != nil && f > *c.MaxInclusive:
		return false
	case c.MinExclusive != nil && f <= *c.MinExclusive:
		return false
	case c.MaxExclusive != nil && f >= *c.MaxExclusive:
		return false
	}
	return true
}

func countOK(n int, minCount, maxCount *int) bool {
	if minCount != nil && n < *minCount {
		return false
	}
	return maxCount == nil || n <= *maxCount
}
