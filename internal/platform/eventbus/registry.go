package eventbus

import (
	"sort"
	"sync"
)

// Registry stores one ordered handler list per dispatch key.
type Registry[E any] struct {
	mu            sync.RWMutex // Protects subscriptions and nextID
	subscriptions map[string][]*subscription[E]
	nextID        uint64
}

// NewRegistry creates an empty registry.
func NewRegistry[E any]() *Registry[E] {
	return &Registry[E]{
		subscriptions: make(map[string][]*subscription[E]),
	}
}

// Subscribe appends handler to the list for key and returns a function that
// removes exactly this registration. The returned function is idempotent.
func (r *Registry[E]) Subscribe(key string, handler Handler[E]) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subscriptions[key] = append(r.subscriptions[key], &subscription[E]{id: id, handler: handler})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(key, id) })
	}
}

// remove rebuilds the slice rather than editing it in place so that a
// snapshot taken by an in-flight Notify is never modified underneath it. The
// removed flag keeps that Notify from calling the handler later on.
func (r *Registry[E]) remove(key string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.subscriptions[key]
	kept := make([]*subscription[E], 0, len(current))
	for _, s := range current {
		if s.id == id {
			s.removed.Store(true)
			continue
		}
		kept = append(kept, s)
	}

	if len(kept) == 0 {
		delete(r.subscriptions, key)
		return
	}
	r.subscriptions[key] = kept
}

// Notify invokes every handler registered under key, in order, and returns how
// many ran. The handler list is captured when Notify starts: a handler added
// by another handler first runs on the next Notify, while one removed before
// its turn is skipped. No lock is held while handlers run, so handlers may
// re-enter the registry.
func (r *Registry[E]) Notify(key string, event *E) int {
	r.mu.RLock()
	handlers := r.subscriptions[key]
	r.mu.RUnlock()

	ran := 0
	for _, s := range handlers {
		if s.removed.Load() {
			continue
		}
		s.handler(event)
		ran++
	}
	return ran
}

// Len reports how many handlers are registered under key.
func (r *Registry[E]) Len(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscriptions[key])
}

// Keys returns the keys with at least one handler, sorted.
func (r *Registry[E]) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.subscriptions))
	for k := range r.subscriptions {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Strings(keys)
	return keys
}
