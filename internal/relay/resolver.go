package relay

import "strings"

// Resolve decides where a message goes next.
//
// Without a destination the message is dispatched under its topic. With one,
// the first hop is compared against the known connections: a match consumes
// that hop and forwards whatever is left; a miss falls back to the topic and
// keeps the whole destination as a hint for topic listeners.
func Resolve(to string, topic string, isConnection func(name string) bool) (key string, forwardedTo string) {
	if to == "" {
		return topic, ""
	}

	head, tail, _ := strings.Cut(to, Delimiter)
	if isConnection != nil && isConnection(head) {
		return head, tail
	}

	return topic, to
}
