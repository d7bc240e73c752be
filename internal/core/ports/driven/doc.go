// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ArticleSource: Unread bookmarks and archiving (Pocket)
//   - ConversionService: Remote article-to-EPUB jobs (epub.press)
//   - DocumentFormatter: EPUB packaging rewrite and inspection
//   - Destination: Document storage driven through its CLI client (rmapi)
//   - ExclusionStore: Durable exclusion entries
//   - SyncRunStore: Reconciliation cycle history
//   - TokenExchanger: Device token to bearer token exchange
//   - ClientConfig: Destination client configuration files
//   - SessionProvider: Current credential snapshot
//   - NetworkProbe: Internet reachability
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
