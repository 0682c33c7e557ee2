package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is one capture of a client's queries, mutations and cache as sent
// by the background context. The captured values are kept as received.
type Snapshot struct {
	ID         uuid.UUID
	Queries    any
	Mutations  any
	Cache      any
	CapturedAt time.Time
}

// NewSnapshot stamps a capture with a fresh ID.
func NewSnapshot(queries, mutations, cache any, capturedAt time.Time) *Snapshot {
	return &Snapshot{
		ID:         uuid.New(),
		Queries:    queries,
		Mutations:  mutations,
		Cache:      cache,
		CapturedAt: capturedAt.UTC(),
	}
}
