package relay

import (
	"sort"
	"sync"
)

type connection struct {
	unsubscribe func()
}

// connectionTable maps connection names to their registry subscriptions.
type connectionTable struct {
	mu      sync.RWMutex
	entries map[string]*connection
}

func newConnectionTable() *connectionTable {
	return &connectionTable{entries: make(map[string]*connection)}
}

// put records conn under name and returns the entry it replaced, if any.
func (t *connectionTable) put(name string, conn *connection) *connection {
	t.mu.Lock()
	defer t.mu.Unlock()
	previous := t.entries[name]
	t.entries[name] = conn
	return previous
}

// take removes name from the table. When want is non-nil only that exact
// entry is removed, so a stale closure cannot drop a newer registration.
func (t *connectionTable) take(name string, want *connection) *connection {
	t.mu.Lock()
	defer t.mu.Unlock()
	conn, ok := t.entries[name]
	if !ok || (want != nil && conn != want) {
		return nil
	}
	delete(t.entries, name)
	return conn
}

func (t *connectionTable) has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[name]
	return ok
}

func (t *connectionTable) names() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	t.mu.RUnlock()

	sort.Strings(names)
	return names
}
