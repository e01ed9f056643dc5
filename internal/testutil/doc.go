// Package testutil provides MemoryGraph, an in-memory property graph that
// stands in for a database Session in tests.
//
// MemoryGraph does not parse queries. It recognises the two population
// count shapes the runner sends and, for every other query, reads the
// check id from the query's check_id column and evaluates the registered
// check in Go with the same row semantics as the generated query.
package testutil
