package driven

import (
	"context"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// Destination is the document store the user reads from.
// All names are relative to the configured storage directory.
type Destination interface {
	// List returns the names of documents in the storage directory.
	List(ctx context.Context) ([]string, error)

	// Stat returns the reading state of a document.
	Stat(ctx context.Context, name string) (*domain.RemoteDocument, error)

	// Download fetches a document archive into dir and returns its path.
	Download(ctx context.Context, name, dir string) (string, error)

	// Upload stores the file at path in the storage directory.
	Upload(ctx context.Context, path string) error

	// Delete removes a document.
	Delete(ctx context.Context, name string) error

	// EnsureDir creates the storage directory if needed.
	EnsureDir(ctx context.Context) error
}
