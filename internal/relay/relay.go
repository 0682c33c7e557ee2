package relay

import (
	"context"

	"github.com/philly/devtools-relay/internal/platform/eventbus"
	"github.com/philly/devtools-relay/internal/platform/logger"
)

// Relay is the routing facade. It is synchronous and re-entrant: Broadcast
// returns only after every handler for the resolved key has run, and handlers
// may broadcast again from inside a delivery.
//
// A Relay is meant to be driven from one goroutine at a time. Callers sharing
// it across goroutines must serialize their calls.
type Relay struct {
	registry    *eventbus.Registry[Event]
	connections *connectionTable
	logger      logger.Logger

	maxDepth int
	depth    int
}

// Option configures a Relay.
type Option func(*Relay)

// WithMaxDepth bounds how deeply broadcasts may nest inside handlers. A
// broadcast that would exceed the bound is dropped and logged. Zero, the
// default, means no bound: a forwarding cycle then recurses until the stack
// is exhausted.
func WithMaxDepth(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// New creates a Relay. A nil logger discards output.
func New(log logger.Logger, opts ...Option) *Relay {
	if log == nil {
		log = logger.Nop{}
	}

	r := &Relay{
		registry:    eventbus.NewRegistry[Event](),
		connections: newConnectionTable(),
		logger:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddConnection registers handler as the addressable endpoint name. A handler
// already registered under name is detached first. The returned function
// removes this registration and does nothing once name has been re-registered.
func (r *Relay) AddConnection(name string, handler MessageHandler) (unsubscribe func()) {
	if handler == nil {
		handler = func(Message) {}
	}
	r.RemoveConnection(name)

	conn := &connection{
		unsubscribe: r.registry.Subscribe(name, func(e *Event) {
			handler(e.Detail)
		}),
	}
	r.connections.put(name, conn)

	return func() {
		if c := r.connections.take(name, conn); c != nil {
			c.unsubscribe()
		}
	}
}

// RemoveConnection detaches the endpoint name. Unknown names are ignored.
func (r *Relay) RemoveConnection(name string) {
	if c := r.connections.take(name, nil); c != nil {
		c.unsubscribe()
	}
}

// HasConnection reports whether name is currently an addressable endpoint.
func (r *Relay) HasConnection(name string) bool {
	return r.connections.has(name)
}

// Connections returns the registered endpoint names, sorted.
func (r *Relay) Connections() []string {
	return r.connections.names()
}

// Broadcast routes msg to the handlers of exactly one dispatch key.
func (r *Relay) Broadcast(msg Message) {
	ctx := context.Background()

	if r.maxDepth > 0 && r.depth >= r.maxDepth {
		r.logger.Warn(ctx, "relay depth limit reached, dropping message",
			"message", msg.Message,
			"to", msg.To,
			"max_depth", r.maxDepth,
		)
		return
	}

	key, to := Resolve(msg.To, msg.Message, r.connections.has)
	event := &Event{
		Key: key,
		Detail: Message{
			To:      to,
			Message: msg.Message,
			Payload: msg.Payload,
		},
	}

	r.depth++
	defer func() { r.depth-- }()

	delivered := r.registry.Notify(key, event)
	r.logger.Debug(ctx, "relay dispatch",
		"key", key,
		"message", msg.Message,
		"to", to,
		"handlers", delivered,
	)
}

// Send is Broadcast.
func (r *Relay) Send(msg Message) {
	r.Broadcast(msg)
}

// Listen subscribes handler to messages dispatched under the literal topic.
// It never sees hops addressed to a connection name.
func (r *Relay) Listen(topic string, handler MessageHandler) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}
	return r.registry.Subscribe(topic, func(e *Event) {
		handler(e.Detail)
	})
}

// Forward rebroadcasts every message dispatched under topic to recipient,
// keeping its topic and payload. Rules that forward to each other form a
// cycle; see WithMaxDepth.
func (r *Relay) Forward(topic string, recipient string) (unsubscribe func()) {
	return r.Listen(topic, func(msg Message) {
		msg.To = recipient
		r.Broadcast(msg)
	})
}
