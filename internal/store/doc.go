// Package store keeps an append-only history of validation reports in
// SQLite.
//
// Each run is one row in runs (summary columns plus the full JSON
// report) and one row per check in check_results, so the outcome of a
// single check can be followed across runs without decoding reports.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait on lock contention
//   - foreign_keys=ON: check_results rows require their run
//
// Schema changes are applied as numbered migrations tracked in
// PRAGMA user_version.
package store
