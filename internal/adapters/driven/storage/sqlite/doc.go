// Package sqlite provides a SQLite-based implementation of the state
// store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements the store interfaces
// through a single database connection:
//
//   - ExclusionStore: Articles that must not be converted again
//   - SyncRunStore: Reconciliation cycle history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory, named NNN_description.up.sql.
//
// # Data Location
//
// The database is stored at <config dir>/state.db.
package sqlite
