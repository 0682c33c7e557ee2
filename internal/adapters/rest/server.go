package rest

import (
	"github.com/philly/devtools-relay/internal/adapters/api"
)

// Server combines all handlers to implement api.ServerInterface
type Server struct {
	*HealthHandler
	*RelayHandler
	*StateHandler
	*StreamHandler
}

// NewServer creates a new server that implements api.ServerInterface
func NewServer(
	healthHandler *HealthHandler,
	relayHandler *RelayHandler,
	stateHandler *StateHandler,
	streamHandler *StreamHandler,
) *Server {
	return &Server{
		HealthHandler: healthHandler,
		RelayHandler:  relayHandler,
		StateHandler:  stateHandler,
		StreamHandler: streamHandler,
	}
}

// Ensure Server implements api.ServerInterface
var _ api.ServerInterface = (*Server)(nil)
