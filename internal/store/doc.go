// Package store persists migsmoke run history in SQLite.
//
// Two tables:
//   - runs: one row per harness run (title, start time, duration, tally)
//   - check_results: one row per executed check, keyed by (run_id, seq)
//
// Run IDs are UUIDv7, so lexical order matches creation order.
// Check names are stored NFC-normalised so the same name typed on different
// platforms compares equal in history queries.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: check_results rows are removed with their run
//
// Schema changes are applied incrementally using PRAGMA user_version.
package store
