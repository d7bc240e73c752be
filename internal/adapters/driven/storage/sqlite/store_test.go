package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store, dir
}

func TestNewStore(t *testing.T) {
	store, dir := setupTestStore(t)
	assert.Equal(t, filepath.Join(dir, "state.db"), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_RequiresDir(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		store, err := NewStore(dir)
		require.NoError(t, err)

		var version int
		require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
		assert.Equal(t, 1, version)
		require.NoError(t, store.Close())
	}
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_history.up.sql": {Data: []byte("SELECT 1;")},
		"001_initial.up.sql": {Data: []byte("SELECT 1;")},
		"010_later.up.sql":   {Data: []byte("SELECT 1;")},
		"003_notes.down.sql": {Data: []byte("SELECT 1;")},
		"embed.go":           {Data: []byte("package migrations")},
		"bad_prefix.up.sql":  {Data: []byte("SELECT 1;")},
	}

	pending, err := pendingMigrations(fsys, 1)

	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 2, pending[0].version)
	assert.Equal(t, "002_history.up.sql", pending[0].name)
	assert.Equal(t, 10, pending[1].version)
}

func TestMigrate_FailedMigrationKeepsVersion(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"002_broken.up.sql": {Data: []byte("CREATE TABLE broken (;")},
	}

	err := store.migrate(ctx, fsys)

	require.Error(t, err)
	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestExclusionStore_AddAndList(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	exclusions := store.ExclusionStore()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, exclusions.Add(ctx, domain.Exclusion{Title: "B", Reason: "timeout", ExcludedAt: at}))
	require.NoError(t, exclusions.Add(ctx, domain.Exclusion{Title: "A", Reason: "invalid content", ExcludedAt: at}))

	list, err := exclusions.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Title)
	assert.Equal(t, "invalid content", list[0].Reason)
	assert.True(t, at.Equal(list[0].ExcludedAt))
	assert.Equal(t, "B", list[1].Title)
}

func TestExclusionStore_DuplicateIgnored(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	exclusions := store.ExclusionStore()

	require.NoError(t, exclusions.Add(ctx, domain.Exclusion{Title: "A", Reason: "first"}))
	require.NoError(t, exclusions.Add(ctx, domain.Exclusion{Title: "A", Reason: "second"}))

	list, err := exclusions.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].Reason)
}

func TestExclusionStore_EmptyTitleRejected(t *testing.T) {
	store, _ := setupTestStore(t)
	err := store.ExclusionStore().Add(context.Background(), domain.Exclusion{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExclusionStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.ExclusionStore().Add(ctx, domain.Exclusion{Title: "Paywalled", Reason: "invalid content"}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	list, err := reopened.ExclusionStore().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Paywalled", list[0].Title)
}

func TestSyncRunStore_RecordAndHistory(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	runs := store.SyncRunStore()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, runs.Record(ctx, &domain.SyncRun{
		ID: "r1", StartedAt: base, EndedAt: base.Add(time.Minute), Success: true, Downloaded: 2, Uploaded: 2,
	}))
	require.NoError(t, runs.Record(ctx, &domain.SyncRun{
		ID: "r2", StartedAt: base.Add(time.Hour), EndedAt: base.Add(time.Hour + time.Second), Error: "pocket down",
	}))

	history, err := runs.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "r2", history[0].ID)
	assert.False(t, history[0].Success)
	assert.Equal(t, "pocket down", history[0].Error)

	assert.Equal(t, "r1", history[1].ID)
	assert.True(t, history[1].Success)
	assert.Equal(t, 2, history[1].Uploaded)
	assert.Equal(t, time.Minute, history[1].Duration())
}

func TestSyncRunStore_RecordInvalid(t *testing.T) {
	store, _ := setupTestStore(t)
	assert.ErrorIs(t, store.SyncRunStore().Record(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SyncRunStore().Record(context.Background(), &domain.SyncRun{}), domain.ErrInvalidInput)
}

func TestSyncRunStore_Prune(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	runs := store.SyncRunStore()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, runs.Record(ctx, &domain.SyncRun{ID: fmt.Sprintf("r%d", i), StartedAt: start, EndedAt: start}))
	}

	require.NoError(t, runs.Prune(ctx, 3))

	history, err := runs.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"r4", "r3", "r2"}, []string{history[0].ID, history[1].ID, history[2].ID})
}
