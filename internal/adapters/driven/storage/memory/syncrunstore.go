package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
)

// Ensure SyncRunStore implements the interface.
var _ driven.SyncRunStore = (*SyncRunStore)(nil)

// SyncRunStore is an in-memory implementation of driven.SyncRunStore.
type SyncRunStore struct {
	mu   sync.RWMutex
	runs []domain.SyncRun
}

// NewSyncRunStore creates a new in-memory sync run store.
func NewSyncRunStore() *SyncRunStore {
	return &SyncRunStore{}
}

// Record stores a finished cycle.
func (s *SyncRunStore) Record(_ context.Context, run *domain.SyncRun) error {
	if run == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	sort.SliceStable(s.runs, func(i, j int) bool { return s.runs[i].StartedAt.After(s.runs[j].StartedAt) })
	return nil
}

// History returns up to limit cycles, newest first.
func (s *SyncRunStore) History(_ context.Context, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit > len(s.runs) || limit < 0 {
		limit = len(s.runs)
	}
	return append([]domain.SyncRun(nil), s.runs[:limit]...), nil
}

// Prune keeps the most recent keep cycles.
func (s *SyncRunStore) Prune(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep < len(s.runs) {
		s.runs = s.runs[:keep]
	}
	return nil
}
