package rest

import (
	"github.com/google/wire"
	"github.com/philly/devtools-relay/internal/adapters/api"
)

// ProviderSet is the wire provider set for REST handlers
var ProviderSet = wire.NewSet(
	NewBaseHandler,
	NewHealthHandler,
	NewRelayHandler,
	NewStateHandler,
	NewStreamHandler,
	NewServer,
	wire.Bind(new(api.ServerInterface), new(*Server)),
)
