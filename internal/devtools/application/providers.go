package application

import "github.com/google/wire"

// ProviderSet is the wire provider set for the devtools service.
var ProviderSet = wire.NewSet(NewService)
