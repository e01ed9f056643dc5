package ir

// Check is a sealed interface over every compiled constraint.
// Exactly one variant struct exists per Kind (the four logical kinds
// share Logical, distinguished by Op).
type Check interface {
	irCheck() // Sealed - only the variants below implement it
	Kind() Kind
	Base() *Meta
}

// Meta carries the fields every check has regardless of kind.
type Meta struct {
	// ID is unique within a plan and deterministic across parses.
	ID string

	// Shape is the originating shape identifier. Empty for generated
	// checks (strict mode).
	Shape string

	// TargetLabel is the node label the check applies to ("*" for
	// database-wide checks).
	TargetLabel string

	Severity Severity
	Message  string

	// Annotations copied from the schema; never affect queries.
	DefaultValue Value
	DisplayOrder *int
}

// Base returns the shared fields. Promoted to every variant.
func (m *Meta) Base() *Meta { return m }

// PropertyCheck is implemented by checks that constrain a single node
// property.
type PropertyCheck interface {
	Check
	PropertyName() string
}

// RelationshipCheck is implemented by checks that constrain one
// relationship hop.
type RelationshipCheck interface {
	Check
	Target() RelationshipTarget
}

// PropertyExists requires a non-null property.
type PropertyExists struct {
	Meta
	Property string
}

// PropertyType requires a property's runtime type to match ExpectedType
// ("string", "integer", "float", "boolean", "date", "datetime" or a
// schema-local type name).
type PropertyType struct {
	Meta
	Property     string
	ExpectedType string
	OnlyIfExists bool
}

// PropertyValueIn restricts a property to an enumerated set.
type PropertyValueIn struct {
	Meta
	Property      string
	AllowedValues []Value
	OnlyIfExists  bool
}

// PropertyPattern requires a property to match a regular expression.
// Flags follows the SHACL convention; only "i" changes the query.
type PropertyPattern struct {
	Meta
	Property     string
	Pattern      string
	Flags        string
	OnlyIfExists bool
}

// PropertyStringLength bounds the length of a string property.
// At least one bound is set.
type PropertyStringLength struct {
	Meta
	Property     string
	MinLength    *int
	MaxLength    *int
	OnlyIfExists bool
}

// PropertyRange bounds a numeric property. At least one bound is set.
type PropertyRange struct {
	Meta
	Property     string
	MinInclusive *float64
	MaxInclusive *float64
	MinExclusive *float64
	MaxExclusive *float64
	OnlyIfExists bool
}

// PropertyPair compares two properties of the same node.
type PropertyPair struct {
	Meta
	Property        string
	CompareProperty string
	Comparison      Comparison
	OnlyIfExists    bool
}

// RelationshipCardinality bounds the number of relationships of one type
// leaving (or entering) each node. A nil MaxCount is unbounded.
type RelationshipCardinality struct {
	Meta
	Relationship RelationshipTarget
	MinCount     int
	MaxCount     *int

	// AcceptableLabels, when non-empty, replaces the exact target label
	// match with "any of these labels" (class hierarchy closure).
	AcceptableLabels []string
}

// RelationshipEndpoint requires every relationship of a type to connect
// TargetLabel to Relationship.TargetLabel.
type RelationshipEndpoint struct {
	Meta
	Relationship RelationshipTarget
}

// QualifiedCardinality bounds how many values of Property satisfy Filter.
//
// When Relationship is set the values are the nodes reached over that
// relationship instead of the property's own values, and Filter holds
// the label they must carry.
type QualifiedCardinality struct {
	Meta
	Property     string
	Filter       Check
	Relationship *RelationshipTarget
	QualifiedMin *int
	QualifiedMax *int
}

// Logical combines nested checks. SubChecks are owned exclusively.
type Logical struct {
	Meta
	Op        LogicalOp
	SubChecks []Check
}

// UniqueLang records a language-uniqueness constraint that property
// graphs cannot enforce.
type UniqueLang struct {
	Meta
	Property string
}

// UndeclaredLabels flags labels present in the data but not declared.
type UndeclaredLabels struct {
	Meta
	AllowedLabels []string
}

// UndeclaredRelationshipTypes flags relationship types present in the
// data but not declared.
type UndeclaredRelationshipTypes struct {
	Meta
	AllowedRelationships []string
}

// UndeclaredProperties flags property keys on TargetLabel nodes that are
// not declared.
type UndeclaredProperties struct {
	Meta
	AllowedProperties []string
}

// EmptyShape flags a declared label with no instances.
type EmptyShape struct {
	Meta
}

func (*PropertyExists) irCheck()              {}
func (*PropertyType) irCheck()                {}
func (*PropertyValueIn) irCheck()             {}
func (*PropertyPattern) irCheck()             {}
func (*PropertyStringLength) irCheck()        {}
func (*PropertyRange) irCheck()               {}
func (*PropertyPair) irCheck()                {}
func (*RelationshipCardinality) irCheck()     {}
func (*RelationshipEndpoint) irCheck()        {}
func (*QualifiedCardinality) irCheck()        {}
func (*Logical) irCheck()                     {}
func (*UniqueLang) irCheck()                  {}
func (*UndeclaredLabels) irCheck()            {}
func (*UndeclaredRelationshipTypes) irCheck() {}
func (*UndeclaredProperties) irCheck()        {}
func (*EmptyShape) irCheck()                  {}

func (*PropertyExists) Kind() Kind              { return KindPropertyExists }
func (*PropertyType) Kind() Kind                { return KindPropertyType }
func (*PropertyValueIn) Kind() Kind             { return KindPropertyValueIn }
func (*PropertyPattern) Kind() Kind             { return KindPropertyPattern }
func (*PropertyStringLength) Kind() Kind        { return KindPropertyStringLength }
func (*PropertyRange) Kind() Kind               { return KindPropertyRange }
func (*PropertyPair) Kind() Kind                { return KindPropertyPair }
func (*RelationshipCardinality) Kind() Kind     { return KindRelationshipCardinality }
func (*RelationshipEndpoint) Kind() Kind        { return KindRelationshipEndpoint }
func (*QualifiedCardinality) Kind() Kind        { return KindQualifiedCardinality }
func (*UniqueLang) Kind() Kind                  { return KindUniqueLang }
func (*UndeclaredLabels) Kind() Kind            { return KindUndeclaredLabels }
func (*UndeclaredRelationshipTypes) Kind() Kind { return KindUndeclaredRelationshipTypes }
func (*UndeclaredProperties) Kind() Kind        { return KindUndeclaredProperties }
func (*EmptyShape) Kind() Kind                  { return KindEmptyShape }

// Kind maps the operator to its logical kind.
func (c *Logical) Kind() Kind {
	switch c.Op {
	case OpNot:
		return KindLogicalNot
	case OpAnd:
		return KindLogicalAnd
	case OpOr:
		return KindLogicalOr
	default:
		return KindLogicalXone
	}
}

func (c *PropertyExists) PropertyName() string       { return c.Property }
func (c *PropertyType) PropertyName() string         { return c.Property }
func (c *PropertyValueIn) PropertyName() string      { return c.Property }
func (c *PropertyPattern) PropertyName() string      { return c.Property }
func (c *PropertyStringLength) PropertyName() string { return c.Property }
func (c *PropertyRange) PropertyName() string        { return c.Property }
func (c *PropertyPair) PropertyName() string         { return c.Property }
func (c *QualifiedCardinality) PropertyName() string { return c.Property }
func (c *UniqueLang) PropertyName() string           { return c.Property }

func (c *RelationshipCardinality) Target() RelationshipTarget { return c.Relationship }
func (c *RelationshipEndpoint) Target() RelationshipTarget    { return c.Relationship }

// IsValueKind reports whether a failed check of this kind is meaningless
// when no node carries the property (the property-level vacancy rule).
func IsValueKind(k Kind) bool {
	switch k {
	case KindPropertyType, KindPropertyValueIn, KindPropertyPattern,
		KindPropertyStringLength, KindPropertyRange, KindPropertyPair:
		return true
	}
	return false
}

// Operand joins the checks compiled from one combinator operand. A lone
// check stands for the operand; several are conjoined under an AND with
// meta, so a combinator has exactly one sub-check per operand.
func Operand(meta Meta, subs []Check) Check {
	if len(subs) == 1 {
		return subs[0]
	}
	meta.Message = LogicalMessage(meta.TargetLabel, OpAnd, subs)
	return &Logical{Meta: meta, Op: OpAnd, SubChecks: subs}
}

// Walk calls fn for c and every nested check, depth first, parents first.
func Walk(c Check, fn func(Check)) {
	if c == nil {
		return
	}
	fn(c)
	switch v := c.(type) {
	case *QualifiedCardinality:
		Walk(v.Filter, fn)
	case *Logical:
		for _, sub := range v.SubChecks {
			Walk(sub, fn)
		}
	}
}
