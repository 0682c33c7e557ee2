//go:build wireinject
// +build wireinject

package server

import (
	"context"

	"github.com/google/wire"
	"github.com/philly/devtools-relay/internal/adapters/rest"
	"github.com/philly/devtools-relay/internal/adapters/rest/middleware"
	"github.com/philly/devtools-relay/internal/devtools/application"
	"github.com/philly/devtools-relay/internal/platform/logger"
	"github.com/philly/devtools-relay/internal/relay"
)

// InitializeApp creates a fully configured App with all dependencies
func InitializeApp(ctx context.Context) (*App, func(), error) {
	wire.Build(
		// Bootstrap phase and main logger
		logger.ProviderSet,
		LoadConfig,
		provideLoggerConfig,

		// Snapshot storage
		ConnectDatabase,
		ProvideSnapshotArchive,
		ProvideDatabasePinger,

		// Relay and the devtools service on top of it
		provideRelayConfig,
		relay.ProviderSet,
		provideServiceConfig,
		application.ProviderSet,

		// REST handlers
		rest.ProviderSet,
		provideVersion, // Provide version string for HealthHandler

		// Auth middleware
		provideAuthConfig,
		middleware.ProviderSet,

		// HTTP Server
		NewHTTPServer,

		// App
		NewApp,
	)

	return nil, nil, nil
}

// provideVersion provides the application version
func provideVersion() string {
	return Version
}

// provideLoggerConfig creates logger config from server config
func provideLoggerConfig(config Config) logger.Config {
	return logger.Config{
		Environment: config.Environment,
		LogLevel:    config.LogLevel,
	}
}

// provideRelayConfig creates relay config from server config
func provideRelayConfig(config Config) relay.Config {
	return relay.Config{MaxDepth: config.RelayMaxDepth}
}

// provideServiceConfig creates devtools service config from server config
func provideServiceConfig(config Config) application.Config {
	return application.Config{ForwardRules: config.Rules}
}

// provideAuthConfig creates the auth middleware config from server config
func provideAuthConfig(config Config) middleware.AuthConfig {
	return middleware.AuthConfig{
		JWKS:   config.JWKSEndpoint,
		Issuer: config.JWTIssuer,
		Secret: config.AuthSecret,
	}
}
