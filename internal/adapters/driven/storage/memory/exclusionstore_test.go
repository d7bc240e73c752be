package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

func TestNewExclusionStore(t *testing.T) {
	store := NewExclusionStore()
	require.NotNil(t, store)
}

func TestExclusionStore_Add(t *testing.T) {
	store := NewExclusionStore()
	ctx := context.Background()

	exclusion := domain.Exclusion{
		Title:      "Some Article",
		Reason:     "invalid content",
		ExcludedAt: time.Now(),
	}

	err := store.Add(ctx, exclusion)
	assert.NoError(t, err)

	exclusions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, exclusions, 1)
	assert.Equal(t, "Some Article", exclusions[0].Title)
}

func TestExclusionStore_AddKeepsFirst(t *testing.T) {
	store := NewExclusionStore()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, domain.Exclusion{Title: "A", Reason: "first"}))
	require.NoError(t, store.Add(ctx, domain.Exclusion{Title: "A", Reason: "second"}))

	exclusions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, exclusions, 1)
	assert.Equal(t, "first", exclusions[0].Reason)
}

func TestExclusionStore_RejectsEmptyTitle(t *testing.T) {
	store := NewExclusionStore()

	err := store.Add(context.Background(), domain.Exclusion{Reason: "timeout"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	exclusions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, exclusions)
}

func TestExclusionStore_ListSorted(t *testing.T) {
	store := NewExclusionStore()
	ctx := context.Background()
	for _, title := range []string{"c", "a", "b"} {
		require.NoError(t, store.Add(ctx, domain.Exclusion{Title: title}))
	}

	exclusions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", exclusions[0].Title)
	assert.Equal(t, "c", exclusions[2].Title)
}

func TestExclusionStore_Concurrent(t *testing.T) {
	store := NewExclusionStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Add(ctx, domain.Exclusion{Title: string(rune('a' + n))})
			_, _ = store.List(ctx)
		}(i)
	}
	wg.Wait()

	exclusions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, exclusions, 10)
}
