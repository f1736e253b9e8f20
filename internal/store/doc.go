// Package store keeps recorded trace sessions in SQLite.
//
// A session row is written when a run starts and closed with its outcome when
// the run ends. Trace entries and per-engine results hang off the session id.
//
// # Ordering
//
// Entries are keyed by (session_id, seq). seq is the logical clock stamped by
// the tracer, never wall time, so reads return the order the fabric produced
// them in regardless of when the writer flushed.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads while a run is recording
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
