package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/philly/devtools-relay/internal/platform/logger"
)

// Execer runs DDL statements. Satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Step is one schema change owned by an adapter
type Step interface {
	// Name returns the name of the step for logging
	Name() string

	// Apply runs the change. It must be idempotent: steps run on every start.
	Apply(ctx context.Context, db Execer) error
}

// Runner applies steps in order
type Runner struct {
	steps  []Step
	logger logger.Logger
	db     Execer
}

// NewRunner creates a runner for the given steps
func NewRunner(logger logger.Logger, db Execer, steps ...Step) *Runner {
	return &Runner{
		steps:  steps,
		logger: logger,
		db:     db,
	}
}

// RunAll applies every step, stopping at the first failure
func (r *Runner) RunAll(ctx context.Context) error {
	r.logger.Info(ctx, "applying schema", "step_count", len(r.steps))

	for _, step := range r.steps {
		if err := step.Apply(ctx, r.db); err != nil {
			r.logger.Error(ctx, "schema step failed",
				"step", step.Name(),
				"error", err,
			)
			return fmt.Errorf("schema step %s failed: %w", step.Name(), err)
		}

		r.logger.Debug(ctx, "schema step applied", "step", step.Name())
	}

	r.logger.Info(ctx, "schema up to date")
	return nil
}
