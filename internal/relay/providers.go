package relay

import (
	"github.com/google/wire"
	"github.com/philly/devtools-relay/internal/platform/logger"
)

// ProviderSet is the wire provider set for the relay.
var ProviderSet = wire.NewSet(NewFromConfig)

// Config holds the relay settings read from the environment.
type Config struct {
	MaxDepth int
}

// DefaultMaxDepth bounds the application's relay when Config leaves MaxDepth
// unset.
const DefaultMaxDepth = 32

// NewFromConfig builds the application's single Relay instance. Unlike New,
// the result is always depth bounded.
func NewFromConfig(config Config, log logger.Logger) *Relay {
	depth := config.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return New(log, WithMaxDepth(depth))
}
