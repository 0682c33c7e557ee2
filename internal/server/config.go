package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/philly/devtools-relay/internal/platform/logger"
	"github.com/philly/devtools-relay/internal/platform/validator"
	"github.com/spf13/viper"
)

type Config struct {
	ServerAddress   string `mapstructure:"SERVER_ADDRESS"`
	Environment     string `mapstructure:"ENVIRONMENT"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`    // Logging level (debug, info, warn, error)
	DatabaseURL     string `mapstructure:"DATABASE_URL"` // Empty keeps snapshots in memory
	AuthSecret      string `mapstructure:"AUTH_SECRET"`  // HS256 secret for bearer tokens
	JWKSEndpoint    string `mapstructure:"JWKS_ENDPOINT"`
	JWTIssuer       string `mapstructure:"JWT_ISSUER"`
	RelayMaxDepth   int    `mapstructure:"RELAY_MAX_DEPTH"`  // Nested broadcasts allowed before a message is dropped
	ForwardRules    string `mapstructure:"FORWARD_RULES"`    // topic=recipient,topic=recipient
	SnapshotHistory int    `mapstructure:"SNAPSHOT_HISTORY"` // Snapshots kept by the archive

	// Rules is ForwardRules parsed by Validate.
	Rules []validator.ForwardRule `mapstructure:"-"`
}

var configDefaults = map[string]any{
	"SERVER_ADDRESS":   ":8080",
	"ENVIRONMENT":      "development",
	"LOG_LEVEL":        "info",
	"DATABASE_URL":     "",
	"AUTH_SECRET":      "",
	"JWKS_ENDPOINT":    "",
	"JWT_ISSUER":       "",
	"RELAY_MAX_DEPTH":  32,
	"FORWARD_RULES":    "",
	"SNAPSHOT_HISTORY": 50,
}

func LoadConfig(bootstrapLogger *logger.BootstrapLogger) (Config, error) {
	ctx := context.Background()

	// Load .env file if it exists (godotenv will find it automatically)
	// It's okay if the file doesn't exist - we'll use environment variables
	if err := godotenv.Load(); err != nil {
		bootstrapLogger.Info(ctx, "no .env file found, using environment variables only")
	} else {
		bootstrapLogger.Info(ctx, "loaded .env file")
	}

	v := viper.New()

	// Every key needs a default: Unmarshal only sees keys viper knows about,
	// even with AutomaticEnv.
	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		bootstrapLogger.Error(ctx, "failed to unmarshal configuration", "error", err)
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	bootstrapLogger.Info(ctx, "configuration loaded",
		"environment", config.Environment,
		"log_level", config.LogLevel,
		"server_address", config.ServerAddress,
		"database", config.DatabaseURL != "",
	)

	if err := config.Validate(); err != nil {
		bootstrapLogger.Error(ctx, "configuration validation failed", "error", err)
		return Config{}, err
	}

	bootstrapLogger.Info(ctx, "configuration validated successfully", "forward_rules", len(config.Rules))
	return config, nil
}

// Validate checks the loaded values and parses FORWARD_RULES into Rules.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServerAddress) == "" {
		return errors.New("SERVER_ADDRESS is required")
	}
	if c.JWKSEndpoint != "" && c.JWTIssuer == "" {
		return errors.New("JWT_ISSUER is required when JWKS_ENDPOINT is set")
	}
	if c.RelayMaxDepth <= 0 {
		return errors.New("RELAY_MAX_DEPTH must be positive")
	}
	if c.SnapshotHistory <= 0 {
		return errors.New("SNAPSHOT_HISTORY must be positive")
	}

	rules, err := validator.ParseForwardRules(c.ForwardRules)
	if err != nil {
		return fmt.Errorf("FORWARD_RULES: %w", err)
	}
	c.Rules = rules
	return nil
}
