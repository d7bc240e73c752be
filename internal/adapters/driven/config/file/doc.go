// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - CredentialsStore: TOML-based storage of the Pocket access token
package file
