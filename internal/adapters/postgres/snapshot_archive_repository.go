package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/philly/devtools-relay/internal/devtools/domain"
	"github.com/philly/devtools-relay/internal/devtools/ports"
	"github.com/philly/devtools-relay/internal/platform/postgres"
	"github.com/philly/devtools-relay/internal/platform/schema"
)

// SnapshotTable is the table backing the archive.
const SnapshotTable = "devtools_snapshots"

// CreateSnapshotTableSQL creates the archive table when it does not exist.
// It is applied at startup by SnapshotSchema.
const CreateSnapshotTableSQL = `
CREATE TABLE IF NOT EXISTS devtools_snapshots (
	id          UUID PRIMARY KEY,
	queries     JSONB,
	mutations   JSONB,
	cache       JSONB,
	captured_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS devtools_snapshots_captured_at_idx ON devtools_snapshots (captured_at DESC);
`

// SnapshotSchema is the schema step for the archive table.
type SnapshotSchema struct{}

var _ schema.Step = SnapshotSchema{}

func (SnapshotSchema) Name() string { return SnapshotTable }

func (SnapshotSchema) Apply(ctx context.Context, db schema.Execer) error {
	_, err := db.Exec(ctx, CreateSnapshotTableSQL)
	return err
}

var snapshotColumns = []string{"id", "queries", "mutations", "cache", "captured_at"}

// SnapshotRepository implements ports.SnapshotArchive using PostgreSQL
type SnapshotRepository struct {
	postgres.BaseRepository
	txManager postgres.TransactionManager
	retain    int
}

var _ ports.SnapshotArchive = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a repository that keeps at most retain
// snapshots. A non-positive retain keeps everything.
func NewSnapshotRepository(db *pgxpool.Pool, retain int) *SnapshotRepository {
	return &SnapshotRepository{
		BaseRepository: postgres.NewBaseRepository(db),
		txManager:      postgres.NewTransactionManager(db),
		retain:         retain,
	}
}

// Save upserts snapshot and prunes rows beyond the retention limit in the
// same transaction.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	insert, err := r.insertQuery(snapshot)
	if err != nil {
		return fmt.Errorf("SnapshotRepository.Save: %w", err)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("SnapshotRepository.Save: build query: %w", err)
	}

	err = postgres.InTx(ctx, r.txManager, r.BaseRepository, func(repo postgres.BaseRepository) error {
		if _, err := repo.DB.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		if r.retain <= 0 {
			return nil
		}

		pruneSQL, pruneArgs, err := r.pruneQuery().ToSql()
		if err != nil {
			return fmt.Errorf("build prune query: %w", err)
		}
		if _, err := repo.DB.Exec(ctx, pruneSQL, pruneArgs...); err != nil {
			return fmt.Errorf("prune: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("SnapshotRepository.Save: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) insertQuery(snapshot *domain.Snapshot) (sq.InsertBuilder, error) {
	queries, err := encodeJSONB(snapshot.Queries)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("encode queries: %w", err)
	}
	mutations, err := encodeJSONB(snapshot.Mutations)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("encode mutations: %w", err)
	}
	cache, err := encodeJSONB(snapshot.Cache)
	if err != nil {
		return sq.InsertBuilder{}, fmt.Errorf("encode cache: %w", err)
	}

	return r.SB.
		Insert(SnapshotTable).
		Columns(snapshotColumns...).
		Values(
			pgtype.UUID{Bytes: snapshot.ID, Valid: true},
			queries,
			mutations,
			cache,
			pgtype.Timestamptz{Time: snapshot.CapturedAt, Valid: true},
		).
		Suffix("ON CONFLICT (id) DO UPDATE SET " +
			"queries = EXCLUDED.queries, mutations = EXCLUDED.mutations, " +
			"cache = EXCLUDED.cache, captured_at = EXCLUDED.captured_at"), nil
}

func (r *SnapshotRepository) pruneQuery() sq.DeleteBuilder {
	return r.SB.
		Delete(SnapshotTable).
		Where(sq.Expr(
			"id NOT IN (SELECT id FROM "+SnapshotTable+" ORDER BY captured_at DESC, id DESC LIMIT ?)",
			r.retain,
		))
}

// FindByID retrieves one snapshot
func (r *SnapshotRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Snapshot, error) {
	query, args, err := r.SB.
		Select(snapshotColumns...).
		From(SnapshotTable).
		Where(sq.Eq{"id": pgtype.UUID{Bytes: id, Valid: true}}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("SnapshotRepository.FindByID: build query: %w", err)
	}

	snapshot, err := scanSnapshot(r.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("SnapshotRepository.FindByID: %w", err)
	}
	return snapshot, nil
}

// ListRecent retrieves up to limit snapshots, newest first
func (r *SnapshotRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Snapshot, error) {
	builder := r.SB.
		Select(snapshotColumns...).
		From(SnapshotTable).
		OrderBy("captured_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("SnapshotRepository.ListRecent: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("SnapshotRepository.ListRecent: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("SnapshotRepository.ListRecent: scan: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SnapshotRepository.ListRecent: rows: %w", err)
	}
	return snapshots, nil
}

func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var (
		id                        pgtype.UUID
		queries, mutations, cache []byte
		capturedAt                pgtype.Timestamptz
	)
	if err := row.Scan(&id, &queries, &mutations, &cache, &capturedAt); err != nil {
		return nil, err
	}

	snapshot := &domain.Snapshot{
		ID:         uuid.UUID(id.Bytes),
		CapturedAt: capturedAt.Time.UTC(),
	}
	var err error
	if snapshot.Queries, err = decodeJSONB(queries); err != nil {
		return nil, fmt.Errorf("decode queries: %w", err)
	}
	if snapshot.Mutations, err = decodeJSONB(mutations); err != nil {
		return nil, fmt.Errorf("decode mutations: %w", err)
	}
	if snapshot.Cache, err = decodeJSONB(cache); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	return snapshot, nil
}

// encodeJSONB returns nil for a nil value so the column stores SQL NULL.
func encodeJSONB(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

func decodeJSONB(raw []byte) (any, error) {
	if raw == nil {
		return nil, nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}
