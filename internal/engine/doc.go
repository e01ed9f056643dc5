// Package engine runs a validation plan against a property graph.
//
// A run has three phases:
//
//  1. Compile: every top-level check is compiled by the chosen backend.
//     A compile failure aborts the run before any query is sent.
//  2. Pre-flight: the runner counts instances of each declared label and,
//     for labels that have instances, the nodes carrying each property a
//     value check constrains. Each count is queried once per run.
//  3. Execute: checks on an empty population are vacuous and are not
//     executed; no-op queries pass without execution; everything else is
//     sent to the Session. Zero rows is a pass, any row is a violating
//     element.
//
// A query failure is recorded on its check and the run continues. The
// plan conforms when no violation-severity check failed.
//
// Checks are independent read-only queries, so Runner may execute them
// concurrently (WithConcurrency). Results keep plan order regardless of
// completion order. The Session is borrowed for one run and never closed
// by the runner.
package engine
