package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

func recordRuns(t *testing.T, state *fakeState) {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, state.runs.Record(ctx, &domain.SyncRun{
		ID:         "run-1",
		StartedAt:  start,
		EndedAt:    start.Add(90 * time.Second),
		Success:    true,
		Archived:   2,
		Downloaded: 3,
		Uploaded:   3,
	}))
	require.NoError(t, state.runs.Record(ctx, &domain.SyncRun{
		ID:        "run-2",
		StartedAt: start.Add(time.Hour),
		EndedAt:   start.Add(time.Hour + 4*time.Second),
		Success:   false,
		Error:     "list documents: rmapi exited 1",
	}))
}

func TestHistoryCmd_Use(t *testing.T) {
	assert.Equal(t, "history", historyCmd.Use)
}

func TestHistoryCmd_Empty(t *testing.T) {
	state := setupStateTest(t)

	out, err := executeRoot("history", "-a", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, out, "No sync cycles recorded yet.")
	assert.True(t, state.closed)
}

func TestHistoryCmd_ShowsRuns(t *testing.T) {
	state := setupStateTest(t)
	recordRuns(t, state)

	out, err := executeRoot("history", "-a", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, out, "Duration")
	assert.Contains(t, out, "1m 30s")
	assert.Contains(t, out, "4s")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "failed: list documents: rmapi exited 1")

	// Newest first
	assert.Less(t, strings.Index(out, "failed:"), strings.Index(out, "1m 30s"))
}

func TestHistoryCmd_Limit(t *testing.T) {
	state := setupStateTest(t)
	recordRuns(t, state)

	out, err := executeRoot("history", "--limit", "1", "-a", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, out, "failed:")
	assert.NotContains(t, out, "1m 30s")
}

func TestHistoryCmd_InvalidLimit(t *testing.T) {
	setupStateTest(t)

	_, err := executeRoot("history", "--limit", "0", "-a", t.TempDir())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRenderHistory_OneRowPerRun(t *testing.T) {
	runs := []domain.SyncRun{
		{StartedAt: time.Now(), EndedAt: time.Now(), Success: true, Uploaded: 7},
	}

	out := renderHistory(runs)

	assert.Contains(t, out, "Uploaded")
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "0s")
}
