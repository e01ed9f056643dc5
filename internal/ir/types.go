package ir

// Severity ranks the impact of a failed check.
type Severity string

const (
	SeverityViolation Severity = "violation"
	SeverityWarning   Severity = "warning"
	SeverityInfo      Severity = "info"
)

// Kind tags the variant of a Check. The string values are the wire names
// used in plan and report documents.
type Kind string

const (
	KindPropertyExists              Kind = "property_exists"
	KindPropertyType                Kind = "property_type"
	KindPropertyValueIn             Kind = "property_value_in"
	KindPropertyPattern             Kind = "property_pattern"
	KindPropertyStringLength        Kind = "property_string_length"
	KindPropertyRange               Kind = "property_range"
	KindPropertyPair                Kind = "property_pair"
	KindRelationshipCardinality     Kind = "relationship_cardinality"
	KindRelationshipEndpoint        Kind = "relationship_endpoint"
	KindQualifiedCardinality        Kind = "qualified_cardinality"
	KindLogicalNot                  Kind = "logical_not"
	KindLogicalAnd                  Kind = "logical_and"
	KindLogicalOr                   Kind = "logical_or"
	KindLogicalXone                 Kind = "logical_xone"
	KindUniqueLang                  Kind = "unique_lang"
	KindUndeclaredLabels            Kind = "undeclared_labels"
	KindUndeclaredRelationshipTypes Kind = "undeclared_relationship_types"
	KindUndeclaredProperties        Kind = "undeclared_properties"
	KindEmptyShape                  Kind = "empty_shape"
)

// AllKinds lists every check kind in declaration order.
var AllKinds = []Kind{
	KindPropertyExists,
	KindPropertyType,
	KindPropertyValueIn,
	KindPropertyPattern,
	KindPropertyStringLength,
	KindPropertyRange,
	KindPropertyPair,
	KindRelationshipCardinality,
	KindRelationshipEndpoint,
	KindQualifiedCardinality,
	KindLogicalNot,
	KindLogicalAnd,
	KindLogicalOr,
	KindLogicalXone,
	KindUniqueLang,
	KindUndeclaredLabels,
	KindUndeclaredRelationshipTypes,
	KindUndeclaredProperties,
	KindEmptyShape,
}

// Direction is the traversal direction of a relationship, seen from the
// constrained node.
type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
)

// Comparison is the operator of a property-pair constraint.
type Comparison string

const (
	CompareEquals           Comparison = "equals"
	CompareDisjoint         Comparison = "disjoint"
	CompareLessThan         Comparison = "lessThan"
	CompareLessThanOrEquals Comparison = "lessThanOrEquals"
)

// LogicalOp selects the combinator of a Logical check.
type LogicalOp string

const (
	OpNot  LogicalOp = "not"
	OpAnd  LogicalOp = "and"
	OpOr   LogicalOp = "or"
	OpXone LogicalOp = "xone"
)

// RelationshipTarget describes one relationship hop: its type, the direction
// it is traversed in, and the label expected on the far node.
type RelationshipTarget struct {
	Type        string    `json:"type" yaml:"type"`
	Direction   Direction `json:"direction" yaml:"direction"`
	TargetLabel string    `json:"target_label" yaml:"target_label"`
}
