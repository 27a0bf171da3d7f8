// Package sqlite provides a SQLite-based implementation of the pipeline's
// durable stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements several store interfaces
// through a single database connection:
//
//   - EventStore: the append-only event stream
//   - CursorStore: per-consumer read positions
//   - FingerprintStore: content fingerprints and document groups
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory and embedded at compile time.
//
// # Data Location
//
// The database is stored at <data_dir>/events.db.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode, so the watch loop and a concurrent "events --follow"
// reader can share the file.
package sqlite
