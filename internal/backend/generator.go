package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/graphlint/internal/ir"
)

// Generator compiles checks for one Dialect. It is stateless and safe for
// concurrent use.
type Generator struct {
	d Dialect
}

// New returns a generator for d.
func New(d Dialect) *Generator {
	return &Generator{d: d}
}

// Name returns the dialect name.
func (g *Generator) Name() string { return g.d.Name }

// CompileCheck implements Backend.
func (g *Generator) CompileCheck(c ir.Check) (string, error) {
	switch chk := c.(type) {
	case *ir.PropertyExists:
		return g.propertyExists(chk), nil
	case *ir.PropertyType:
		return g.propertyType(chk), nil
	case *ir.PropertyValueIn:
		return g.propertyValueIn(chk), nil
	case *ir.PropertyPattern:
		return g.propertyPattern(chk), nil
	case *ir.PropertyStringLength:
		return g.propertyStringLength(chk), nil
	case *ir.PropertyRange:
		return g.propertyRange(chk), nil
	case *ir.PropertyPair:
		return g.propertyPair(chk)
	case *ir.RelationshipCardinality:
		return g.relationshipCardinality(chk), nil
	case *ir.RelationshipEndpoint:
		return g.relationshipEndpoint(chk), nil
	case *ir.QualifiedCardinality:
		return g.qualifiedCardinality(chk)
	case *ir.Logical:
		return g.logical(chk)
	case *ir.UniqueLang:
		return g.uniqueLang(chk), nil
	case *ir.UndeclaredLabels:
		return g.undeclaredLabels(chk), nil
	case *ir.UndeclaredRelationshipTypes:
		return g.undeclaredRelationshipTypes(chk), nil
	case *ir.UndeclaredProperties:
		return g.undeclaredProperties(chk), nil
	case *ir.EmptyShape:
		return g.emptyShape(chk), nil
	case nil:
		return "", fmt.Errorf("%s backend: cannot compile nil check", g.d.Name)
	default:
		return "", &UnsupportedKindError{Backend: g.d.Name, Kind: c.Kind()}
	}
}

// CountQuery implements Backend.
func (g *Generator) CountQuery(label string) string {
	return fmt.Sprintf("MATCH (n:%s)\nRETURN count(n) AS cnt", ident(label))
}

// PropertyCountQuery implements Backend.
func (g *Generator) PropertyCountQuery(label, prop string) string {
	return fmt.Sprintf("MATCH (n:%s)\nWHERE %s IS NOT NULL\nRETURN count(n) AS cnt", ident(label), propRef(prop))
}

// propRef renders n.prop.
func propRef(name string) string {
	return "n." + ident(name)
}

func match(label string) string {
	return "MATCH (n:" + ident(label) + ")"
}

// nodeReturn renders the RETURN clause of a node-level query. Extra
// columns go between labels and check_id.
func (g *Generator) nodeReturn(id string, extra ...string) string {
	cols := []string{
		g.d.ElementID + "(n) AS node_id",
		"labels(n) AS labels",
	}
	cols = append(cols, extra...)
	cols = append(cols, quote(id)+" AS check_id")
	return "RETURN " + strings.Join(cols, ",\n       ")
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}

func noOp(id, reason string, more ...string) string {
	out := []string{noOpPrefix + " Check " + id + ": " + reason}
	for _, m := range more {
		out = append(out, noOpPrefix+" "+m)
	}
	return lines(out...)
}

func (g *Generator) propertyExists(c *ir.PropertyExists) string {
	return lines(
		match(c.TargetLabel),
		"WHERE "+propRef(c.Property)+" IS NULL",
		g.nodeReturn(c.ID),
	)
}

// typeTest holds when prop's runtime type is one of graphType's names.
// Neo4j reports "STRING NOT NULL", "ZONED DATETIME NOT NULL" and so on,
// hence the prefix match.
func (g *Generator) typeTest(prop, graphType string) string {
	names := g.d.typeNames(graphType)
	tests := make([]string, len(names))
	for i, name := range names {
		tests[i] = fmt.Sprintf("%s(%s) STARTS WITH %s", g.d.ValueType, propRef(prop), quote(name))
	}
	if len(tests) == 1 {
		return tests[0]
	}
	return "(" + strings.Join(tests, " OR ") + ")"
}

func (g *Generator) propertyType(c *ir.PropertyType) string {
	p := propRef(c.Property)
	// Nulls are never type violations, whether or not the property is
	// optional.
	return lines(
		match(c.TargetLabel),
		"WHERE "+p+" IS NOT NULL AND NOT "+g.typeTest(c.Property, c.ExpectedType),
		g.nodeReturn(c.ID, p+" AS actual_value"),
	)
}

func (g *Generator) propertyValueIn(c *ir.PropertyValueIn) string {
	p := propRef(c.Property)
	where := "WHERE NOT " + p + " IN " + g.d.list(c.AllowedValues)
	if c.OnlyIfExists {
		where = "WHERE " + p + " IS NOT NULL AND NOT " + p + " IN " + g.d.list(c.AllowedValues)
	}
	return lines(
		match(c.TargetLabel),
		where,
		g.nodeReturn(c.ID, p+" AS actual_value"),
	)
}

func regex(pattern, flags string) string {
	if strings.Contains(flags, "i") {
		pattern = "(?i)" + pattern
	}
	return quote(pattern)
}

func (g *Generator) propertyPattern(c *ir.PropertyPattern) string {
	p := propRef(c.Property)
	return lines(
		match(c.TargetLabel),
		"WHERE "+p+" IS NOT NULL AND NOT "+p+" =~ "+regex(c.Pattern, c.Flags),
		g.nodeReturn(c.ID, p+" AS actual_value"),
	)
}

func lengthViolation(p string, minLen, maxLen *int) string {
	var conds []string
	if minLen != nil {
		conds = append(conds, fmt.Sprintf("size(%s) < %d", p, *minLen))
	}
	if maxLen != nil {
		conds = append(conds, fmt.Sprintf("size(%s) > %d", p, *maxLen))
	}
	return strings.Join(conds, " OR ")
}

func (g *Generator) propertyStringLength(c *ir.PropertyStringLength) string {
	p := propRef(c.Property)
	return lines(
		match(c.TargetLabel),
		"WHERE "+p+" IS NOT NULL AND ("+lengthViolation(p, c.MinLength, c.MaxLength)+")",
		g.nodeReturn(c.ID, p+" AS actual_value", "size("+p+") AS actual_length"),
	)
}

func rangeViolation(p string, c *ir.PropertyRange) string {
	var conds []string
	if c.MinInclusive != nil {
		conds = append(conds, p+" < "+ir.FormatFloat(*c.MinInclusive))
	}
	if c.MaxInclusive != nil {
		conds = append(conds, p+" > "+ir.FormatFloat(*c.MaxInclusive))
	}
	if c.MinExclusive != nil {
		conds = append(conds, p+" <= "+ir.FormatFloat(*c.MinExclusive))
	}
	if c.MaxExclusive != nil {
		conds = append(conds, p+" >= "+ir.FormatFloat(*c.MaxExclusive))
	}
	return strings.Join(conds, " OR ")
}

func (g *Generator) propertyRange(c *ir.PropertyRange) string {
	p := propRef(c.Property)
	return lines(
		match(c.TargetLabel),
		"WHERE "+p+" IS NOT NULL AND ("+rangeViolation(p, c)+")",
		g.nodeReturn(c.ID, p+" AS actual_value"),
	)
}

// pairHolds renders the comparison a property pair must satisfy.
func pairHolds(p1, p2 string, cmp ir.Comparison) (string, bool) {
	switch cmp {
	case ir.CompareEquals:
		return p1 + " = " + p2, true
	case ir.CompareDisjoint:
		return p1 + " <> " + p2, true
	case ir.CompareLessThan:
		return p1 + " < " + p2, true
	case ir.CompareLessThanOrEquals:
		return p1 + " <= " + p2, true
	}
	return "", false
}

func (g *Generator) propertyPair(c *ir.PropertyPair) (string, error) {
	p1, p2 := propRef(c.Property), propRef(c.CompareProperty)
	var violation string
	switch c.Comparison {
	case ir.CompareEquals:
		violation = p1 + " <> " + p2
	case ir.CompareDisjoint:
		violation = p1 + " = " + p2
	case ir.CompareLessThan:
		violation = "NOT (" + p1 + " < " + p2 + ")"
	case ir.CompareLessThanOrEquals:
		violation = "NOT (" + p1 + " <= " + p2 + ")"
	default:
		return "", fmt.Errorf("%s backend: check %s: unknown comparison %q", g.d.Name, c.ID, c.Comparison)
	}
	return lines(
		match(c.TargetLabel),
		"WHERE "+p1+" IS NOT NULL AND "+p2+" IS NOT NULL",
		"  AND "+violation,
		g.nodeReturn(c.ID, p1+" AS value1", p2+" AS value2"),
	), nil
}

// hop renders the relationship pattern from n to t. An empty label
// leaves t unconstrained.
func hop(rel ir.RelationshipTarget, varName, targetLabel string) string {
	t := "(t)"
	if targetLabel != "" {
		t = "(t:" + ident(targetLabel) + ")"
	}
	r := "[" + varName + ":" + ident(rel.Type) + "]"
	if rel.Direction == ir.Incoming {
		return "(n)<-" + r + "-" + t
	}
	return "(n)-" + r + "->" + t
}

// resolvedLabel drops the placeholder used for unresolved targets.
func resolvedLabel(label string) string {
	if label == "Unknown" {
		return ""
	}
	return label
}

func countBounds(name string, minCount *int, maxCount *int) string {
	var conds []string
	if minCount != nil && *minCount > 0 {
		conds = append(conds, name+" < "+strconv.Itoa(*minCount))
	}
	if maxCount != nil {
		conds = append(conds, name+" > "+strconv.Itoa(*maxCount))
	}
	return strings.Join(conds, " OR ")
}

func (g *Generator) relationshipCardinality(c *ir.RelationshipCardinality) string {
	where := countBounds("rel_count", &c.MinCount, c.MaxCount)
	if where == "" {
		return noOp(c.ID, "no constraint (0..*)", "This check always passes, skipped")
	}

	parts := []string{match(c.TargetLabel)}
	if len(c.AcceptableLabels) > 0 {
		parts = append(parts,
			"OPTIONAL MATCH "+hop(c.Relationship, "r", ""),
			"WHERE any(lbl IN labels(t) WHERE lbl IN "+stringList(c.AcceptableLabels)+")")
	} else {
		parts = append(parts, "OPTIONAL MATCH "+hop(c.Relationship, "r", resolvedLabel(c.Relationship.TargetLabel)))
	}
	parts = append(parts,
		"WITH n, count(r) AS rel_count",
		"WHERE "+where,
		g.nodeReturn(c.ID, "rel_count AS actual_count"),
	)
	return lines(parts...)
}

func (g *Generator) relationshipEndpoint(c *ir.RelationshipEndpoint) string {
	rel := c.Relationship
	pattern := "MATCH (s)-[r:" + ident(rel.Type) + "]->(t)"
	if rel.Direction == ir.Incoming {
		pattern = "MATCH (s)<-[r:" + ident(rel.Type) + "]-(t)"
	}
	var ok []string
	ok = append(ok, "s:"+ident(c.TargetLabel))
	if target := resolvedLabel(rel.TargetLabel); target != "" {
		ok = append(ok, "t:"+ident(target))
	}
	return lines(
		pattern,
		"WHERE NOT ("+strings.Join(ok, " AND ")+")",
		"RETURN "+strings.Join([]string{
			g.d.ElementID + "(r) AS rel_id",
			"type(r) AS rel_type",
			"labels(s) AS source_labels",
			"labels(t) AS target_labels",
			quote(c.ID) + " AS check_id",
		}, ",\n       "),
	)
}

func (g *Generator) qualifiedCardinality(c *ir.QualifiedCardinality) (string, error) {
	where := countBounds("qcount", c.QualifiedMin, c.QualifiedMax)
	if where == "" {
		return noOp(c.ID, "qualified cardinality with no bounds", "This check always passes, skipped"), nil
	}

	if c.Relationship != nil {
		return lines(
			match(c.TargetLabel),
			"OPTIONAL MATCH "+hop(*c.Relationship, "r", resolvedLabel(c.Relationship.TargetLabel)),
			"WITH n, count(r) AS qcount",
			"WHERE "+where,
			g.nodeReturn(c.ID, "qcount AS qualified_count"),
		), nil
	}

	if c.Filter == nil {
		return "", fmt.Errorf("%s backend: check %s: qualified cardinality without filter", g.d.Name, c.ID)
	}
	cond, err := g.condition(c.Filter)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", c.ID, err)
	}
	return lines(
		match(c.TargetLabel),
		"WITH n, CASE WHEN "+cond+" THEN 1 ELSE 0 END AS qcount",
		"WHERE "+where,
		g.nodeReturn(c.ID, "qcount AS qualified_count"),
	), nil
}

func (g *Generator) logical(c *ir.Logical) (string, error) {
	if len(c.SubChecks) == 0 {
		return noOp(c.ID, string(c.Kind())+" with no inner checks, skipped"), nil
	}
	conds := make([]string, len(c.SubChecks))
	for i, sub := range c.SubChecks {
		cond, err := g.condition(sub)
		if err != nil {
			return "", fmt.Errorf("check %s: %w", c.ID, err)
		}
		conds[i] = cond
	}

	switch c.Op {
	case ir.OpNot:
		// Several sub-checks form one operand: flag nodes satisfying all.
		where := conds[0]
		if len(conds) > 1 {
			where = strings.Join(wrap(conds), " AND ")
		}
		return lines(
			match(c.TargetLabel),
			"WHERE "+where,
			g.nodeReturn(c.ID),
		), nil
	case ir.OpAnd:
		return lines(
			match(c.TargetLabel),
			"WHERE "+joinNegated(conds, " OR "),
			g.nodeReturn(c.ID),
		), nil
	case ir.OpOr:
		return lines(
			match(c.TargetLabel),
			"WHERE "+joinNegated(conds, " AND "),
			g.nodeReturn(c.ID),
		), nil
	default:
		return lines(
			match(c.TargetLabel),
			"WITH n, ("+satisfiedSum(conds)+") AS satisfied_count",
			"WHERE satisfied_count <> 1",
			g.nodeReturn(c.ID, "satisfied_count"),
		), nil
	}
}

func joinNegated(conds []string, sep string) string {
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = "NOT (" + c + ")"
	}
	return strings.Join(out, sep)
}

func satisfiedSum(conds []string) string {
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = "CASE WHEN " + c + " THEN 1 ELSE 0 END"
	}
	return strings.Join(out, " + ")
}

func (g *Generator) uniqueLang(c *ir.UniqueLang) string {
	return noOp(c.ID, "uniqueLang not applicable to property graphs",
		"Properties have no language tags, constraint acknowledged")
}

func (g *Generator) undeclaredLabels(c *ir.UndeclaredLabels) string {
	return lines(
		"CALL db.labels() YIELD label",
		"WHERE NOT label IN "+stringList(c.AllowedLabels),
		"MATCH (n) WHERE label IN labels(n)",
		"WITH label, head(collect(n)) AS n",
		"RETURN "+strings.Join([]string{
			g.d.ElementID + "(n) AS node_id",
			"[label] AS labels",
			"label AS undeclared_label",
			quote(c.ID) + " AS check_id",
		}, ",\n       "),
	)
}

func (g *Generator) undeclaredRelationshipTypes(c *ir.UndeclaredRelationshipTypes) string {
	return lines(
		"CALL db.relationshipTypes() YIELD relationshipType",
		"WHERE NOT relationshipType IN "+stringList(c.AllowedRelationships),
		"MATCH ()-[r]->() WHERE type(r) = relationshipType",
		"WITH relationshipType, head(collect(r)) AS r",
		"RETURN "+strings.Join([]string{
			g.d.ElementID + "(startNode(r)) AS node_id",
			"labels(startNode(r)) AS labels",
			"relationshipType AS undeclared_type",
			quote(c.ID) + " AS check_id",
		}, ",\n       "),
	)
}

func (g *Generator) undeclaredProperties(c *ir.UndeclaredProperties) string {
	return lines(
		match(c.TargetLabel),
		"WITH n, [k IN keys(n) WHERE NOT k IN "+stringList(c.AllowedProperties)+"] AS extra",
		"WHERE size(extra) > 0",
		"UNWIND extra AS undeclared_key",
		g.nodeReturn(c.ID, "undeclared_key AS undeclared_property"),
	)
}

func (g *Generator) emptyShape(c *ir.EmptyShape) string {
	return lines(
		"OPTIONAL MATCH (n:"+ident(c.TargetLabel)+")",
		"WITH count(n) AS cnt",
		"WHERE cnt = 0",
		"RETURN "+strings.Join([]string{
			"'none' AS node_id",
			"[" + quote(c.TargetLabel) + "] AS labels",
			"0 AS instance_count",
			quote(c.ID) + " AS check_id",
		}, ",\n       "),
	)
}
