package jobstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolegal/enrichcore/pkg/job"
)

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	j := job.New("abc-123", job.Input{Content: "hello", Format: job.FormatText})
	require.NoError(t, store.Save(ctx, j))

	loaded, err := store.Load(ctx, "abc-123")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, j.ID, loaded.ID)
	assert.Equal(t, j.Input.Content, loaded.Input.Content)
}

func TestFileStore_LoadMissingReturnsNilNil(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	loaded, err := store.Load(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileStore_DeleteAndCountActive(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	active := job.New("active", job.Input{Format: job.FormatText})
	done := job.New("done", job.Input{Format: job.FormatText})
	done.Status = job.StatusCompleted

	require.NoError(t, store.Save(ctx, active))
	require.NoError(t, store.Save(ctx, done))

	count, err := store.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ok, err := store.Delete(ctx, "active")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Delete(ctx, "active")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_CleanupExpired(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	old := job.New("old", job.Input{Format: job.FormatText})
	old.Status = job.StatusCompleted
	old.UpdatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Save(ctx, old))

	recent := job.New("recent", job.Input{Format: job.FormatText})
	recent.Status = job.StatusCompleted
	require.NoError(t, store.Save(ctx, recent))

	removed, err := store.CleanupExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}
