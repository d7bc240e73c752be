package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
)

// timeLayout is fixed width so that stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// syncRunStore implements driven.SyncRunStore.
type syncRunStore struct {
	store *Store
}

var _ driven.SyncRunStore = (*syncRunStore)(nil)

// Record stores a finished cycle.
func (s *syncRunStore) Record(ctx context.Context, run *domain.SyncRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at, ended_at, success, error, archived, downloaded, uploaded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.EndedAt.UTC().Format(timeLayout),
		boolToInt(run.Success),
		nullString(run.Error),
		run.Archived, run.Downloaded, run.Uploaded)

	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	return nil
}

// History returns recent cycles ordered by start time descending.
func (s *syncRunStore) History(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, success, error, archived, downloaded, uploaded
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync history: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync history: %w", err)
	}

	return runs, nil
}

// Prune keeps the most recent keep cycles.
func (s *syncRunStore) Prune(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM sync_runs
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (ORDER BY started_at DESC) as rn
				FROM sync_runs
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning sync history: %w", err)
	}
	return nil
}

// scanSyncRun scans a sync run from a rows iterator.
func scanSyncRun(rows *sql.Rows) (*domain.SyncRun, error) {
	var run domain.SyncRun
	var startedAt, endedAt string
	var errMsg sql.NullString
	var success int

	if err := rows.Scan(&run.ID, &startedAt, &endedAt, &success, &errMsg,
		&run.Archived, &run.Downloaded, &run.Uploaded); err != nil {
		return nil, fmt.Errorf("scanning sync run: %w", err)
	}

	run.StartedAt, _ = time.Parse(timeLayout, startedAt)
	run.EndedAt, _ = time.Parse(timeLayout, endedAt)
	run.Success = success == 1
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return &run, nil
}
