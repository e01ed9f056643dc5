// Package harness runs end-to-end validation scenarios.
//
// A scenario names a schema, describes a small property graph inline and
// states the outcome the runner must report. The harness compiles the
// schema, loads the graph into a testutil.MemoryGraph, executes the plan
// with a fixed clock and run id, records the report in an in-memory
// history store and reads it back, then evaluates the assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: ../../../testdata/movies.shex   # relative to the scenario file
//	strict: false
//	backend: cypher
//	graph:
//	  nodes:
//	    - id: m1
//	      labels: [Movie]
//	      properties: { title: "Alien" }
//	  relationships:
//	    - { type: HAS_DIRECTOR, from: m1, to: p1 }
//	expect:
//	  conforms: false
//	assertions:
//	  - type: check_failed
//	    check: movie-title-exists
//	    nodes: [m2]
//
// # Assertion Types
//
//   - check_passed: the check ran and returned no rows
//   - check_failed: the check reported violations; count and nodes are optional
//   - check_vacuous: the check was skipped for lack of data
//   - check_error: the check's query failed
//
// # Deterministic Testing
//
// Every scenario runs with engine.FixedClock and a fixed run id
// ("<name>-run"), so RunWithGolden can compare the text report byte for
// byte.
package harness
