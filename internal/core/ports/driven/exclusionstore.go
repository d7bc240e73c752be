package driven

import (
	"context"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// ExclusionStore persists exclusion entries.
// Entries are append-only: there is no removal operation.
type ExclusionStore interface {
	// Add records an exclusion. Adding an existing title is a no-op.
	Add(ctx context.Context, exclusion domain.Exclusion) error

	// List returns all exclusions.
	List(ctx context.Context) ([]domain.Exclusion, error)
}
