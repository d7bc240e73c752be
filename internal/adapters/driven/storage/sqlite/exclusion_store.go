package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
)

// exclusionStore implements driven.ExclusionStore.
type exclusionStore struct {
	store *Store
}

var _ driven.ExclusionStore = (*exclusionStore)(nil)

// Add records an exclusion. Existing titles keep their first entry.
func (s *exclusionStore) Add(ctx context.Context, exclusion domain.Exclusion) error {
	if exclusion.Title == "" {
		return fmt.Errorf("%w: exclusion title is empty", domain.ErrInvalidInput)
	}
	excludedAt := exclusion.ExcludedAt
	if excludedAt.IsZero() {
		excludedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO exclusions (title, reason, excluded_at)
		VALUES (?, ?, ?)
	`, exclusion.Title, exclusion.Reason, excludedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("adding exclusion: %w", err)
	}
	return nil
}

// List returns all exclusions ordered by title.
func (s *exclusionStore) List(ctx context.Context) ([]domain.Exclusion, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT title, reason, excluded_at FROM exclusions ORDER BY title
	`)
	if err != nil {
		return nil, fmt.Errorf("querying exclusions: %w", err)
	}
	defer rows.Close()

	return scanExclusions(rows)
}

// scanExclusions scans multiple exclusion rows.
func scanExclusions(rows *sql.Rows) ([]domain.Exclusion, error) {
	var exclusions []domain.Exclusion //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.Exclusion
		var excludedAt string
		if err := rows.Scan(&e.Title, &e.Reason, &excludedAt); err != nil {
			return nil, fmt.Errorf("scanning exclusion: %w", err)
		}
		e.ExcludedAt = parseTime(excludedAt)
		exclusions = append(exclusions, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exclusions: %w", err)
	}

	return exclusions, nil
}

// parseTime parses an RFC3339 string, falling back to SQLite's
// CURRENT_TIMESTAMP layout. Returns zero time if neither matches.
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t
	}
	return time.Time{}
}
