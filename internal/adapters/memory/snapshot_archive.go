package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/philly/devtools-relay/internal/devtools/domain"
	"github.com/philly/devtools-relay/internal/devtools/ports"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 50

// SnapshotArchive keeps the most recent snapshots in memory. Once full, each
// new snapshot evicts the oldest one.
type SnapshotArchive struct {
	mu       sync.RWMutex
	capacity int
	items    []*domain.Snapshot // oldest first
}

var _ ports.SnapshotArchive = (*SnapshotArchive)(nil)

// NewSnapshotArchive creates an archive holding up to capacity snapshots.
func NewSnapshotArchive(capacity int) *SnapshotArchive {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &SnapshotArchive{
		capacity: capacity,
		items:    make([]*domain.Snapshot, 0, capacity),
	}
}

// Save stores snapshot, replacing any entry with the same ID in place.
func (a *SnapshotArchive) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	stored := *snapshot

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, item := range a.items {
		if item.ID == stored.ID {
			a.items[i] = &stored
			return nil
		}
	}

	if len(a.items) == a.capacity {
		copy(a.items, a.items[1:])
		a.items = a.items[:len(a.items)-1]
	}
	a.items = append(a.items, &stored)
	return nil
}

// FindByID returns a copy of the stored snapshot.
func (a *SnapshotArchive) FindByID(ctx context.Context, id uuid.UUID) (*domain.Snapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, item := range a.items {
		if item.ID == id {
			found := *item
			return &found, nil
		}
	}
	return nil, ports.ErrSnapshotNotFound
}

// ListRecent returns up to limit snapshots, most recently saved first.
func (a *SnapshotArchive) ListRecent(ctx context.Context, limit int) ([]*domain.Snapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 || limit > len(a.items) {
		limit = len(a.items)
	}

	result := make([]*domain.Snapshot, 0, limit)
	for i := len(a.items) - 1; i >= 0 && len(result) < limit; i-- {
		found := *a.items[i]
		result = append(result, &found)
	}
	return result, nil
}

// Len reports how many snapshots are held.
func (a *SnapshotArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}
