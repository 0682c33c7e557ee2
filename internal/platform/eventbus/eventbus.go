// Package eventbus is a synchronous, in-process observer registry keyed by
// dispatch key. It replaces host-provided event targets: handlers subscribed
// under a key are invoked in registration order on the caller's goroutine.
package eventbus

import "sync/atomic"

// Handler processes one notification. Every handler notified for the same
// call receives the same event pointer, so a mutation made by one handler is
// visible to the handlers after it.
type Handler[E any] func(event *E)

type subscription[E any] struct {
	id      uint64
	handler Handler[E]
	removed atomic.Bool // Set on unsubscribe; skipped by a Notify already running
}
