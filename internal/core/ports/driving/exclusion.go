package driving

import (
	"context"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// ExclusionCache tracks articles that must not be retried.
type ExclusionCache interface {
	// Invalidate excludes title from future downloads.
	Invalidate(ctx context.Context, title, reason string)

	// IsValid reports whether title may be downloaded. Empty titles are
	// never valid.
	IsValid(title string) bool

	// List returns all exclusions.
	List() []domain.Exclusion
}
