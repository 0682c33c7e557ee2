package domain

import (
	"sync"
	"time"
)

// State is what the panel renders.
type State struct {
	Snapshot *Snapshot
	Theme    ColorTheme
	Query    string
}

// Store holds the latest panel state. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	theme    ColorTheme
	query    string
}

// NewStore creates a store with the default theme and an empty query.
func NewStore() *Store {
	return &Store{theme: DefaultColorTheme}
}

// WriteData replaces the current capture and returns it.
func (s *Store) WriteData(queries, mutations, cache any, capturedAt time.Time) *Snapshot {
	snapshot := NewSnapshot(queries, mutations, cache, capturedAt)

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	return snapshot
}

// SetTheme parses raw and makes it the color theme. An unknown theme leaves
// the current one in place.
func (s *Store) SetTheme(raw string) (ColorTheme, error) {
	theme, err := ParseColorTheme(raw)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return theme, nil
}

// SetQuery replaces the query editor text.
func (s *Store) SetQuery(query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Snapshot: s.snapshot, Theme: s.theme, Query: s.query}
}
