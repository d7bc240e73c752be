// Package domain defines the core business entities for remarkable-pocket.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Article: An unread bookmark on the read-later source
//   - RemoteDocument: A document stored on the destination
//   - DocumentMetadata: Reading progress recovered from a destination document
//   - Exclusion: An article title known to be unconvertible
//   - SyncRun: The outcome of one reconciliation cycle
//   - Session: An immutable destination credential snapshot
//   - Config: Process-wide settings, built once at startup
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
