package model

import "time"

// HistoryRecord is the append-only trace of one completed session. Records
// are never read back into a session and never updated.
type HistoryRecord struct {
	ID          string        `json:"id"`
	Query       Query         `json:"query"`
	ProviderIDs []string      `json:"provider_ids"`
	TotalItems  int           `json:"total_items"`
	Elapsed     time.Duration `json:"elapsed"`
	CreatedAt   time.Time     `json:"created_at"`
}
