// Package ir provides the backend-agnostic intermediate representation for
// graphlint.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the IR
// the foundational layer with no circular dependencies.
//
// The central type is Check, a sealed interface. Each constraint kind has its
// own variant struct carrying exactly the payload that kind needs, so "one
// payload per check" is enforced by the type system:
//
//	switch c := check.(type) {
//	case *PropertyExists:
//	    // c.Property
//	case *RelationshipCardinality:
//	    // c.Relationship, c.MinCount, c.MaxCount
//	...
//	}
//
// Checks with nested checks (QualifiedCardinality, Logical) own their children
// exclusively. The structure is a tree, never a graph.
//
// Key design constraints:
//   - Check ids are deterministic slugs; parsing the same schema twice yields
//     identical ids in identical order
//   - Mapping lookups are pure: same identifier + same overrides = same name
//   - Unbounded maxima are nil, never sentinel numbers
//   - All JSON tags use snake_case
package ir
