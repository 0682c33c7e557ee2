package relay_test

import (
	"context"
	"sync"
	"testing"

	"github.com/philly/devtools-relay/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger records warnings so depth-limit drops can be asserted.
type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

// recorder collects messages delivered to one handler.
type recorder struct {
	got []relay.Message
}

func (r *recorder) handle(msg relay.Message) {
	r.got = append(r.got, msg)
}

// dispatchers lets every routing test run against Broadcast and Send alike.
var dispatchers = map[string]func(*relay.Relay, relay.Message){
	"broadcast": (*relay.Relay).Broadcast,
	"send":      (*relay.Relay).Send,
}

func TestConnectionReceivesDirectMessage(t *testing.T) {
	for name, dispatch := range dispatchers {
		t.Run(name, func(t *testing.T) {
			r := relay.New(nil)
			h := &recorder{}
			r.AddConnection("panel", h.handle)

			payload := map[string]int{"queries": 3}
			dispatch(r, relay.Message{To: "panel", Message: "m", Payload: payload})

			require.Len(t, h.got, 1)
			assert.Equal(t, "m", h.got[0].Message)
			assert.Empty(t, h.got[0].To)
			assert.Equal(t, payload, h.got[0].Payload)
		})
	}
}

func TestHierarchicalHop(t *testing.T) {
	for name, dispatch := range dispatchers {
		t.Run(name, func(t *testing.T) {
			r := relay.New(nil)
			background := &recorder{}
			r.AddConnection("background", background.handle)

			dispatch(r, relay.Message{To: "background:tab", Message: "m"})

			require.Len(t, background.got, 1)
			assert.Equal(t, relay.Message{To: "tab", Message: "m"}, background.got[0])
		})
	}
}

func TestHopChainConsumesOneSegmentPerConnection(t *testing.T) {
	r := relay.New(nil)
	var trail []string

	r.AddConnection("background", func(msg relay.Message) {
		trail = append(trail, "background->"+msg.To)
		r.Broadcast(msg)
	})
	r.AddConnection("tab", func(msg relay.Message) {
		trail = append(trail, "tab->"+msg.To)
		r.Broadcast(msg)
	})
	r.AddConnection("window", func(msg relay.Message) {
		trail = append(trail, "window->"+msg.To)
	})

	r.Broadcast(relay.Message{To: "background:tab:window", Message: "m"})

	assert.Equal(t, []string{"background->tab:window", "tab->window", "window->"}, trail)
}

func TestUnmatchedDestinationFallsBackToTopic(t *testing.T) {
	for name, dispatch := range dispatchers {
		t.Run(name, func(t *testing.T) {
			r := relay.New(nil)
			h := &recorder{}
			r.Listen("m", h.handle)

			dispatch(r, relay.Message{To: "unknown", Message: "m"})

			require.Len(t, h.got, 1)
			assert.Equal(t, relay.Message{To: "unknown", Message: "m"}, h.got[0])
		})
	}
}

func TestUnmatchedMultiHopKeepsFullAddress(t *testing.T) {
	r := relay.New(nil)
	h := &recorder{}
	r.Listen("m", h.handle)

	r.Broadcast(relay.Message{To: "window:tab", Message: "m", Payload: 7})

	require.Len(t, h.got, 1)
	assert.Equal(t, "window:tab", h.got[0].To)
	assert.Equal(t, 7, h.got[0].Payload)
}

func TestConnectionDeliveryDoesNotReachTopicListeners(t *testing.T) {
	r := relay.New(nil)
	conn := &recorder{}
	topic := &recorder{}
	r.AddConnection("panel", conn.handle)
	r.Listen("m", topic.handle)

	r.Broadcast(relay.Message{To: "panel", Message: "m"})

	assert.Len(t, conn.got, 1)
	assert.Empty(t, topic.got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Run("connection", func(t *testing.T) {
		r := relay.New(nil)
		h := &recorder{}
		unsubscribe := r.AddConnection("panel", h.handle)

		r.Broadcast(relay.Message{To: "panel", Message: "first"})
		unsubscribe()
		r.Broadcast(relay.Message{To: "panel", Message: "second"})

		require.Len(t, h.got, 1)
		assert.Equal(t, "first", h.got[0].Message)
		assert.False(t, r.HasConnection("panel"))
	})

	t.Run("listen", func(t *testing.T) {
		r := relay.New(nil)
		h := &recorder{}
		unsubscribe := r.Listen("m", h.handle)

		r.Broadcast(relay.Message{Message: "m", Payload: 1})
		unsubscribe()
		unsubscribe()
		r.Broadcast(relay.Message{Message: "m", Payload: 2})

		require.Len(t, h.got, 1)
		assert.Equal(t, 1, h.got[0].Payload)
	})

	t.Run("forward", func(t *testing.T) {
		r := relay.New(nil)
		h := &recorder{}
		r.AddConnection("Y", h.handle)
		unsubscribe := r.Forward("X", "Y")

		r.Broadcast(relay.Message{Message: "X", Payload: 1})
		unsubscribe()
		r.Broadcast(relay.Message{Message: "X", Payload: 2})

		require.Len(t, h.got, 1)
		assert.Equal(t, 1, h.got[0].Payload)
	})
}

func TestForward(t *testing.T) {
	for name, dispatch := range dispatchers {
		t.Run(name, func(t *testing.T) {
			r := relay.New(nil)
			hY := &recorder{}
			r.AddConnection("Y", hY.handle)
			r.Forward("X", "Y")

			dispatch(r, relay.Message{Message: "X", Payload: 1})

			require.Len(t, hY.got, 1)
			assert.Equal(t, relay.Message{Message: "X", Payload: 1}, hY.got[0])
		})
	}
}

func TestForwardToHierarchicalRecipient(t *testing.T) {
	r := relay.New(nil)
	background := &recorder{}
	r.AddConnection("background", background.handle)
	r.Forward("devtools.snapshot", "background:panel")

	r.Broadcast(relay.Message{Message: "devtools.snapshot", Payload: "s"})

	require.Len(t, background.got, 1)
	assert.Equal(t, "panel", background.got[0].To)
	assert.Equal(t, "s", background.got[0].Payload)
}

func TestMultipleListenersAllFire(t *testing.T) {
	for name, dispatch := range dispatchers {
		t.Run(name, func(t *testing.T) {
			r := relay.New(nil)
			first, second := &recorder{}, &recorder{}
			r.Listen("m", first.handle)
			r.Listen("m", second.handle)
			r.Listen("m", second.handle)

			dispatch(r, relay.Message{Message: "m"})
			dispatch(r, relay.Message{Message: "m"})

			assert.Len(t, first.got, 2)
			assert.Len(t, second.got, 4)
		})
	}
}

func TestListenerOrderFollowsRegistration(t *testing.T) {
	r := relay.New(nil)
	var order []int
	for i := 0; i < 5; i++ {
		r.Listen("m", func(relay.Message) { order = append(order, i) })
	}

	r.Broadcast(relay.Message{Message: "m"})

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestReRegisteringConnectionReplacesHandler(t *testing.T) {
	r := relay.New(nil)
	old, current := &recorder{}, &recorder{}
	staleUnsubscribe := r.AddConnection("panel", old.handle)
	r.AddConnection("panel", current.handle)

	r.Broadcast(relay.Message{To: "panel", Message: "m"})

	assert.Empty(t, old.got)
	assert.Len(t, current.got, 1)

	// The first registration's closure no longer owns the name.
	staleUnsubscribe()
	assert.True(t, r.HasConnection("panel"))
	r.Broadcast(relay.Message{To: "panel", Message: "m"})
	assert.Len(t, current.got, 2)
}

func TestRemoveConnection(t *testing.T) {
	r := relay.New(nil)
	h := &recorder{}
	r.AddConnection("panel", h.handle)
	fallback := &recorder{}
	r.Listen("m", fallback.handle)

	assert.NotPanics(t, func() { r.RemoveConnection("never-registered") })

	r.RemoveConnection("panel")
	r.Broadcast(relay.Message{To: "panel", Message: "m"})

	assert.Empty(t, h.got)
	require.Len(t, fallback.got, 1)
	assert.Equal(t, "panel", fallback.got[0].To)
}

func TestConnections(t *testing.T) {
	r := relay.New(nil)
	r.AddConnection("tab", nil)
	r.AddConnection("background", nil)
	r.AddConnection("panel", nil)
	r.RemoveConnection("tab")

	assert.Equal(t, []string{"background", "panel"}, r.Connections())
	assert.NotPanics(t, func() {
		r.Broadcast(relay.Message{To: "panel", Message: "m"})
	})
}

func TestBroadcastWithoutSubscribersIsNoop(t *testing.T) {
	r := relay.New(nil)
	assert.NotPanics(t, func() {
		r.Broadcast(relay.Message{Message: "nobody.listens"})
		r.Broadcast(relay.Message{To: "a:b:c", Message: "nobody.listens"})
	})
}

func TestPayloadIsPassedByReference(t *testing.T) {
	r := relay.New(nil)
	payload := &struct{ Count int }{}
	r.Listen("m", func(msg relay.Message) {
		msg.Payload.(*struct{ Count int }).Count++
	})
	r.Listen("m", func(msg relay.Message) {
		msg.Payload.(*struct{ Count int }).Count++
	})

	r.Broadcast(relay.Message{Message: "m", Payload: payload})

	assert.Equal(t, 2, payload.Count)
}

func TestReentrantBroadcastRunsInCallStackOrder(t *testing.T) {
	r := relay.New(nil)
	var order []string
	r.Listen("outer", func(relay.Message) {
		order = append(order, "outer-start")
		r.Send(relay.Message{Message: "inner"})
		order = append(order, "outer-end")
	})
	r.Listen("inner", func(relay.Message) { order = append(order, "inner") })

	r.Broadcast(relay.Message{Message: "outer"})

	assert.Equal(t, []string{"outer-start", "inner", "outer-end"}, order)
}

func TestMaxDepthStopsForwardingCycle(t *testing.T) {
	log := &mockLogger{}
	r := relay.New(log, relay.WithMaxDepth(8))

	a, b := 0, 0
	r.AddConnection("A", func(msg relay.Message) {
		a++
		r.Broadcast(relay.Message{Message: msg.Message})
	})
	r.AddConnection("B", func(msg relay.Message) {
		b++
		r.Broadcast(relay.Message{Message: msg.Message})
	})
	r.Forward("X", "A")
	r.Forward("X", "B")

	assert.NotPanics(t, func() {
		r.Broadcast(relay.Message{Message: "X"})
	})

	assert.Positive(t, a)
	assert.Positive(t, b)
	assert.NotEmpty(t, log.warns)
	assert.Equal(t, "relay depth limit reached, dropping message", log.warns[0])

	// The depth counter unwinds, so later broadcasts are delivered again.
	h := &recorder{}
	r.Listen("later", h.handle)
	r.Broadcast(relay.Message{Message: "later"})
	assert.Len(t, h.got, 1)
}

func TestMaxDepthIgnoresNonPositive(t *testing.T) {
	r := relay.New(nil, relay.WithMaxDepth(-1))
	depth := 0
	r.Listen("down", func(relay.Message) {
		depth++
		if depth < 100 {
			r.Broadcast(relay.Message{Message: "down"})
		}
	})

	r.Broadcast(relay.Message{Message: "down"})

	assert.Equal(t, 100, depth)
}

func TestNewFromConfig(t *testing.T) {
	r := relay.NewFromConfig(relay.Config{MaxDepth: 1}, &mockLogger{})
	inner := 0
	r.Listen("outer", func(relay.Message) { r.Broadcast(relay.Message{Message: "inner"}) })
	r.Listen("inner", func(relay.Message) { inner++ })

	r.Broadcast(relay.Message{Message: "outer"})

	assert.Zero(t, inner)
}

func TestNewFromConfigBoundsUnmatchedForwardByDefault(t *testing.T) {
	log := &mockLogger{}
	r := relay.NewFromConfig(relay.Config{}, log)

	// "nobody" is not a connection, so each forward falls back to topic "a"
	// and fires the same rule again.
	r.Forward("a", "nobody")
	seen := 0
	r.Listen("a", func(relay.Message) { seen++ })

	assert.NotPanics(t, func() {
		r.Broadcast(relay.Message{Message: "a"})
	})

	assert.Equal(t, relay.DefaultMaxDepth, seen)
	require.Len(t, log.warns, 1)
	assert.Equal(t, "relay depth limit reached, dropping message", log.warns[0])
}
