package driven

import (
	"context"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// SyncRunStore persists reconciliation cycle history.
type SyncRunStore interface {
	// Record stores a finished cycle.
	Record(ctx context.Context, run *domain.SyncRun) error

	// History returns the most recent cycles, newest first.
	History(ctx context.Context, limit int) ([]domain.SyncRun, error)

	// Prune keeps only the most recent keep cycles.
	Prune(ctx context.Context, keep int) error
}
