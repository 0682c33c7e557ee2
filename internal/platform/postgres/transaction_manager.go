package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionManager starts transactions
type TransactionManager interface {
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction is an open transaction
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Tx() pgx.Tx // for BaseRepository.WithTx
}

// PoolTransactionManager implements TransactionManager using a pgxpool.Pool
type PoolTransactionManager struct {
	pool *pgxpool.Pool
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(pool *pgxpool.Pool) TransactionManager {
	return &PoolTransactionManager{pool: pool}
}

// BeginTx starts a new database transaction
func (m *PoolTransactionManager) BeginTx(ctx context.Context) (Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PgxTransaction{tx: tx}, nil
}

// PgxTransaction wraps a pgx.Tx to implement the Transaction interface
type PgxTransaction struct {
	tx pgx.Tx
}

func (t *PgxTransaction) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *PgxTransaction) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
func (t *PgxTransaction) Tx() pgx.Tx                         { return t.tx }

// InTx runs fn with a copy of base bound to a new transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func InTx(ctx context.Context, tm TransactionManager, base BaseRepository, fn func(repo BaseRepository) error) error {
	tx, err := tm.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := fn(base.WithTx(tx.Tx())); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
