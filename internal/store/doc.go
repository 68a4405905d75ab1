// Package store provides the SQLite-backed relational projection of the
// contact document.
//
// The projection is a single table, one row per contact ID:
//
//	contacts(id TEXT PRIMARY KEY, first_name, last_name, phone, email TEXT,
//	         created_at, updated_at INTEGER)
//
// Rows are written only by the reconciliation engine. Every mutation is one
// statement, so a failed call leaves the row exactly as it was.
//
// # Critical Patterns
//
// created_at is write-once
//   - Insert stores it, Update never names the column
//
// Duplicate inserts surface
//   - Insert uses a plain INSERT, never ON CONFLICT
//   - A primary key violation is returned as ErrDuplicate
//
// Deterministic listing
//   - List orders by last_name, first_name, then id (COLLATE BINARY)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
