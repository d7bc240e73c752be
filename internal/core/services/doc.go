// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// A reconciliation cycle is driven by the Scheduler, which waits for
// connectivity and hands over to the ReconciliationEngine. The engine
// archives read documents, diffs the source against the destination and
// delegates conversions to the DownloadCoordinator. The CredentialManager
// keeps the destination's bearer token fresh in the background.
package services
