// Package relay routes named messages between components living in the same
// process. Destinations are ':'-separated addresses; each named connection
// along the path consumes one segment and receives the remainder.
package relay

// Delimiter separates the hops of an address such as "background:tab:window".
const Delimiter = ":"

// Message is what callers broadcast and what handlers receive.
//
// Payload is opaque to the relay: it is never inspected or copied, so every
// handler of one dispatch sees the same value.
type Message struct {
	To      string `json:"to,omitempty"`
	Message string `json:"message"`
	Payload any    `json:"payload,omitempty"`
}

// Event is the object handed to the registry for a single dispatch.
type Event struct {
	Key    string
	Detail Message
}

// MessageHandler receives the detail of a dispatch.
type MessageHandler func(msg Message)
