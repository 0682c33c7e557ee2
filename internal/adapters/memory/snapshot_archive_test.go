package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/philly/devtools-relay/internal/adapters/memory"
	"github.com/philly/devtools-relay/internal/devtools/domain"
	"github.com/philly/devtools-relay/internal/devtools/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotAt(minute int) *domain.Snapshot {
	at := time.Date(2024, 1, 1, 12, minute, 0, 0, time.UTC)
	return domain.NewSnapshot([]any{minute}, nil, map[string]any{"minute": minute}, at)
}

func TestSnapshotArchive_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	archive := memory.NewSnapshotArchive(3)

	snap := snapshotAt(1)
	require.NoError(t, archive.Save(ctx, snap))

	found, err := archive.FindByID(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap, found)
	assert.NotSame(t, snap, found, "archive should hand out copies")

	_, err = archive.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
}

func TestSnapshotArchive_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	archive := memory.NewSnapshotArchive(2)

	first, second, third := snapshotAt(1), snapshotAt(2), snapshotAt(3)
	for _, snap := range []*domain.Snapshot{first, second, third} {
		require.NoError(t, archive.Save(ctx, snap))
	}

	assert.Equal(t, 2, archive.Len())

	_, err := archive.FindByID(ctx, first.ID)
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)

	recent, err := archive.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, third.ID, recent[0].ID)
	assert.Equal(t, second.ID, recent[1].ID)
}

func TestSnapshotArchive_SaveReplacesExisting(t *testing.T) {
	ctx := context.Background()
	archive := memory.NewSnapshotArchive(2)

	snap := snapshotAt(1)
	require.NoError(t, archive.Save(ctx, snap))

	updated := *snap
	updated.Cache = "replaced"
	require.NoError(t, archive.Save(ctx, &updated))

	assert.Equal(t, 1, archive.Len())
	found, err := archive.FindByID(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, "replaced", found.Cache)
}

func TestSnapshotArchive_ListRecentLimit(t *testing.T) {
	ctx := context.Background()
	archive := memory.NewSnapshotArchive(0)

	for i := 0; i < 5; i++ {
		require.NoError(t, archive.Save(ctx, snapshotAt(i)))
	}

	recent, err := archive.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, []any{4}, recent[0].Queries)
	assert.Equal(t, []any{3}, recent[1].Queries)

	empty, err := memory.NewSnapshotArchive(1).ListRecent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
