package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/newsward/osint-core/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements HistoryStore using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lookup_history (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	target       TEXT NOT NULL,
	kind         TEXT NOT NULL,
	query        JSONB NOT NULL,
	provider_ids TEXT[] NOT NULL,
	total_items  INTEGER NOT NULL,
	elapsed_ms   BIGINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lookup_history_target ON lookup_history(target);
CREATE INDEX IF NOT EXISTS idx_lookup_history_created_at ON lookup_history(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, rec model.HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	queryJSON, err := json.Marshal(rec.Query)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal query")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lookup_history (id, target, kind, query, provider_ids, total_items, elapsed_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Query.Target, string(rec.Query.Kind), queryJSON,
		rec.ProviderIDs, rec.TotalItems, rec.Elapsed.Milliseconds(), rec.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert history record")
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter HistoryFilter) ([]model.HistoryRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT id, query, provider_ids, total_items, elapsed_ms, created_at
	      FROM lookup_history`
	args := []any{}
	if filter.Target != "" {
		q += ` WHERE target = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, filter.Target, limit, filter.Offset)
	} else {
		q += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list history")
	}
	defer rows.Close()

	var records []model.HistoryRecord
	for rows.Next() {
		var rec model.HistoryRecord
		var queryJSON []byte
		var elapsedMS int64
		if err := rows.Scan(&rec.ID, &queryJSON, &rec.ProviderIDs, &rec.TotalItems, &elapsedMS, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history row")
		}
		if err := json.Unmarshal(queryJSON, &rec.Query); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal query")
		}
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate history rows")
}
