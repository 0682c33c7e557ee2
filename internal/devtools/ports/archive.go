package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/philly/devtools-relay/internal/devtools/domain"
)

// ErrSnapshotNotFound is returned by archive implementations when no snapshot
// has the requested ID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotArchive keeps a history of captured snapshots.
type SnapshotArchive interface {
	// Save stores a snapshot. Saving an existing ID replaces it.
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// FindByID returns ErrSnapshotNotFound for unknown IDs.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Snapshot, error)

	// ListRecent returns up to limit snapshots, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Snapshot, error)
}
