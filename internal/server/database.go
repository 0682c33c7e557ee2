package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/philly/devtools-relay/internal/adapters/memory"
	"github.com/philly/devtools-relay/internal/adapters/postgres"
	"github.com/philly/devtools-relay/internal/adapters/rest"
	"github.com/philly/devtools-relay/internal/devtools/ports"
	"github.com/philly/devtools-relay/internal/platform/logger"
	"github.com/philly/devtools-relay/internal/platform/schema"
)

// ConnectDatabase creates a new database connection pool and returns it with a cleanup function.
// With no DATABASE_URL it returns a nil pool and snapshots stay in memory.
func ConnectDatabase(ctx context.Context, config Config, log logger.Logger) (*pgxpool.Pool, func(), error) {
	if config.DatabaseURL == "" {
		log.Info(ctx, "DATABASE_URL not set, snapshots are kept in memory", "capacity", config.SnapshotHistory)
		return nil, func() {}, nil
	}

	log.Info(ctx, "connecting to database")

	// Parse config from URL and set pool defaults
	poolConfig, err := pgxpool.ParseConfig(config.DatabaseURL)
	if err != nil {
		log.Error(ctx, "failed to parse database URL", "error", err)
		return nil, nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// The archive writes one row per snapshot; a small pool is enough.
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute

	log.Debug(ctx, "database pool configuration",
		"max_conns", poolConfig.MaxConns,
		"min_conns", poolConfig.MinConns,
		"max_conn_lifetime", poolConfig.MaxConnLifetime,
		"max_conn_idle_time", poolConfig.MaxConnIdleTime,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error(ctx, "failed to create connection pool", "error", err)
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		log.Error(ctx, "failed to ping database", "error", err)
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info(ctx, "database connection established successfully")

	cleanup := func() {
		log.Info(context.Background(), "closing database connection pool")
		pool.Close()
	}

	return pool, cleanup, nil
}

// ProvideSnapshotArchive picks the postgres archive when a pool is available
// and the in-memory ring otherwise.
func ProvideSnapshotArchive(ctx context.Context, pool *pgxpool.Pool, config Config, log logger.Logger) (ports.SnapshotArchive, error) {
	if pool == nil {
		return memory.NewSnapshotArchive(config.SnapshotHistory), nil
	}

	if err := schema.NewRunner(log, pool, postgres.SnapshotSchema{}).RunAll(ctx); err != nil {
		return nil, err
	}
	return postgres.NewSnapshotRepository(pool, config.SnapshotHistory), nil
}

// ProvideDatabasePinger returns nil when no database is configured so that the
// readiness probe skips the check. A nil *pgxpool.Pool must not be returned
// inside the interface.
func ProvideDatabasePinger(pool *pgxpool.Pool) rest.DatabasePinger {
	if pool == nil {
		return nil
	}
	return pool
}
