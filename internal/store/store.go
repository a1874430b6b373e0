// Package store persists the append-only session history.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/newsward/osint-core/internal/config"
	"github.com/newsward/osint-core/internal/model"
)

// HistoryFilter narrows a history listing.
type HistoryFilter struct {
	Target string `json:"target,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// HistoryStore is the append-only persistence boundary for completed
// sessions. No record is ever read back into a session or updated in place.
type HistoryStore interface {
	Append(ctx context.Context, rec model.HistoryRecord) error
	List(ctx context.Context, filter HistoryFilter) ([]model.HistoryRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a HistoryStore for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (HistoryStore, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q (valid: sqlite, postgres)", cfg.Driver)
	}
}
