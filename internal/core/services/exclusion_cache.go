package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driving"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// Ensure ExclusionCache implements the interface.
var _ driving.ExclusionCache = (*ExclusionCache)(nil)

// ExclusionCache is the set of article titles known to be unconvertible.
// The in-memory set is authoritative; the store is written through and
// only read once, at construction.
type ExclusionCache struct {
	store driven.ExclusionStore
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]domain.Exclusion
}

// NewExclusionCache loads existing exclusions from store. A nil store keeps
// the cache in memory only. A failing store is logged and the cache starts
// empty.
func NewExclusionCache(ctx context.Context, store driven.ExclusionStore, now func() time.Time) *ExclusionCache {
	if now == nil {
		now = time.Now
	}
	c := &ExclusionCache{
		store:   store,
		now:     now,
		entries: make(map[string]domain.Exclusion),
	}
	if store == nil {
		return c
	}

	existing, err := store.List(ctx)
	if err != nil {
		logger.Error("Failed to load excluded articles: %v", err)
		return c
	}
	for _, e := range existing {
		c.entries[e.Title] = e
	}
	logger.Debug("Loaded %d excluded article(s).", len(existing))
	return c
}

// Invalidate excludes title from all future downloads. Invalidating an
// excluded title keeps the original entry.
func (c *ExclusionCache) Invalidate(ctx context.Context, title, reason string) {
	c.mu.Lock()
	if _, ok := c.entries[title]; ok {
		c.mu.Unlock()
		return
	}
	entry := domain.Exclusion{Title: title, Reason: reason, ExcludedAt: c.now()}
	c.entries[title] = entry
	c.mu.Unlock()

	logger.Warn("Excluding '%s' from future syncs (%s).", title, reason)

	if c.store == nil {
		return
	}
	if err := c.store.Add(ctx, entry); err != nil {
		logger.Error("Failed to persist exclusion for '%s': %v", title, err)
	}
}

// IsValid reports whether title may be downloaded.
func (c *ExclusionCache) IsValid(title string) bool {
	if title == "" {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, excluded := c.entries[title]
	return !excluded
}

// List returns all exclusions ordered by title.
func (c *ExclusionCache) List() []domain.Exclusion {
	c.mu.RLock()
	result := make([]domain.Exclusion, 0, len(c.entries))
	for _, e := range c.entries {
		result = append(result, e)
	}
	c.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result
}
