package relay_test

import (
	"testing"

	"github.com/philly/devtools-relay/internal/relay"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	known := map[string]bool{"background": true, "tab": true, "": true}
	isConnection := func(name string) bool { return known[name] }

	tests := []struct {
		name    string
		to      string
		topic   string
		wantKey string
		wantTo  string
	}{
		{
			name:    "no destination dispatches by topic",
			topic:   "devtools.snapshot",
			wantKey: "devtools.snapshot",
		},
		{
			name:    "single known hop",
			to:      "background",
			topic:   "m",
			wantKey: "background",
		},
		{
			name:    "known head forwards the tail",
			to:      "background:tab",
			topic:   "m",
			wantKey: "background",
			wantTo:  "tab",
		},
		{
			name:    "only the first hop is consumed",
			to:      "background:tab:window",
			topic:   "m",
			wantKey: "background",
			wantTo:  "tab:window",
		},
		{
			name:    "unknown head falls back to topic with the full address",
			to:      "window:tab",
			topic:   "m",
			wantKey: "m",
			wantTo:  "window:tab",
		},
		{
			name:    "unknown single hop falls back to topic",
			to:      "unknown",
			topic:   "m",
			wantKey: "m",
			wantTo:  "unknown",
		},
		{
			name:    "trailing delimiter leaves nothing to forward",
			to:      "tab:",
			topic:   "m",
			wantKey: "tab",
		},
		{
			name:    "leading delimiter is resolved mechanically",
			to:      ":tab",
			topic:   "m",
			wantKey: "",
			wantTo:  "tab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, to := relay.Resolve(tt.to, tt.topic, isConnection)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestResolveWithoutMembershipTest(t *testing.T) {
	key, to := relay.Resolve("background:tab", "m", nil)
	assert.Equal(t, "m", key)
	assert.Equal(t, "background:tab", to)
}
