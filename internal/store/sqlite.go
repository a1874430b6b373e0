package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/newsward/osint-core/internal/model"
)

// SQLiteStore implements HistoryStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lookup_history (
	id           TEXT PRIMARY KEY,
	target       TEXT NOT NULL,
	kind         TEXT NOT NULL,
	query        TEXT NOT NULL,
	provider_ids TEXT NOT NULL,
	total_items  INTEGER NOT NULL,
	elapsed_ms   INTEGER NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_lookup_history_target ON lookup_history(target);
CREATE INDEX IF NOT EXISTS idx_lookup_history_created_at ON lookup_history(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, rec model.HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	queryJSON, err := json.Marshal(rec.Query)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal query")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lookup_history (id, target, kind, query, provider_ids, total_items, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Query.Target, string(rec.Query.Kind), string(queryJSON),
		strings.Join(rec.ProviderIDs, ","), rec.TotalItems, rec.Elapsed.Milliseconds(), rec.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert history record")
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, filter HistoryFilter) ([]model.HistoryRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT id, query, provider_ids, total_items, elapsed_ms, created_at
	      FROM lookup_history`
	args := []any{}
	if filter.Target != "" {
		q += ` WHERE target = ?`
		args = append(args, filter.Target)
	}
	q += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list history")
	}
	defer rows.Close() //nolint:errcheck

	var records []model.HistoryRecord
	for rows.Next() {
		var rec model.HistoryRecord
		var queryJSON, providerIDs string
		var elapsedMS int64
		if err := rows.Scan(&rec.ID, &queryJSON, &providerIDs, &rec.TotalItems, &elapsedMS, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history row")
		}
		if err := json.Unmarshal([]byte(queryJSON), &rec.Query); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal query")
		}
		if providerIDs != "" {
			rec.ProviderIDs = strings.Split(providerIDs, ",")
		}
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate history rows")
}
