package driving

import (
	"context"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// Reconciler runs reconciliation cycles.
type Reconciler interface {
	// Sync runs one cycle and returns its outcome.
	Sync(ctx context.Context) (*domain.SyncRun, error)
}

// SyncHistory exposes past cycles.
type SyncHistory interface {
	History(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
