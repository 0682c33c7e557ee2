package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories run
// the same statements inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row
}

// BaseRepository is embedded by every repository
type BaseRepository struct {
	DB Querier                 // pool or transaction
	SB sq.StatementBuilderType // $1, $2 placeholders
}

// NewBaseRepository creates a base repository over a pool
func NewBaseRepository(db *pgxpool.Pool) BaseRepository {
	return BaseRepository{
		DB: db,
		SB: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// WithTx returns a copy that runs its statements on tx
func (b BaseRepository) WithTx(tx pgx.Tx) BaseRepository {
	return BaseRepository{
		DB: tx,
		SB: b.SB,
	}
}
