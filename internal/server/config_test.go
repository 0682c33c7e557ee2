package server_test

import (
	"testing"

	"github.com/philly/devtools-relay/internal/platform/logger"
	"github.com/philly/devtools-relay/internal/platform/validator"
	"github.com/philly/devtools-relay/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_ADDRESS", "ENVIRONMENT", "LOG_LEVEL", "DATABASE_URL", "AUTH_SECRET",
		"JWKS_ENDPOINT", "JWT_ISSUER", "RELAY_MAX_DEPTH", "FORWARD_RULES", "SNAPSHOT_HISTORY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	// viper treats empty variables as unset, so every key takes its default.
	clearConfigEnv(t)

	config, err := server.LoadConfig(logger.NewBootstrapLogger())

	require.NoError(t, err)
	assert.Equal(t, ":8080", config.ServerAddress)
	assert.Equal(t, 50, config.SnapshotHistory)
	assert.Equal(t, 32, config.RelayMaxDepth)
	assert.Empty(t, config.DatabaseURL)
	assert.Empty(t, config.Rules)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVER_ADDRESS", "127.0.0.1:9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RELAY_MAX_DEPTH", "8")
	t.Setenv("SNAPSHOT_HISTORY", "5")
	t.Setenv("FORWARD_RULES", "devtools.snapshot=inspector, devtools.theme=tab:panel")

	config, err := server.LoadConfig(logger.NewBootstrapLogger())

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", config.ServerAddress)
	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, 8, config.RelayMaxDepth)
	assert.Equal(t, 5, config.SnapshotHistory)
	assert.Equal(t, []validator.ForwardRule{
		{Topic: "devtools.snapshot", Recipient: "inspector"},
		{Topic: "devtools.theme", Recipient: "tab:panel"},
	}, config.Rules)
}

func TestConfigValidate(t *testing.T) {
	valid := func() server.Config {
		return server.Config{ServerAddress: ":8080", RelayMaxDepth: 32, SnapshotHistory: 50}
	}

	tests := []struct {
		name    string
		mutate  func(c *server.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *server.Config) {}},
		{name: "missing address", mutate: func(c *server.Config) { c.ServerAddress = " " }, wantErr: "SERVER_ADDRESS"},
		{name: "jwks without issuer", mutate: func(c *server.Config) { c.JWKSEndpoint = "https://example.com/jwks" }, wantErr: "JWT_ISSUER"},
		{name: "negative depth", mutate: func(c *server.Config) { c.RelayMaxDepth = -1 }, wantErr: "RELAY_MAX_DEPTH"},
		{name: "unbounded depth", mutate: func(c *server.Config) { c.RelayMaxDepth = 0 }, wantErr: "RELAY_MAX_DEPTH"},
		{name: "empty history", mutate: func(c *server.Config) { c.SnapshotHistory = 0 }, wantErr: "SNAPSHOT_HISTORY"},
		{name: "malformed rule", mutate: func(c *server.Config) { c.ForwardRules = "devtools.snapshot" }, wantErr: "FORWARD_RULES"},
		{name: "rule missing recipient", mutate: func(c *server.Config) { c.ForwardRules = "devtools.snapshot=" }, wantErr: "FORWARD_RULES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(&config)

			err := config.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
