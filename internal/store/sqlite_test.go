package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsward/osint-core/internal/config"
	"github.com/newsward/osint-core/internal/model"
)

func configStore(driver, url string) config.StoreConfig {
	return config.StoreConfig{Driver: driver, DatabaseURL: url}
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRecord(target string, createdAt time.Time) model.HistoryRecord {
	return model.HistoryRecord{
		Query:       model.Query{Target: target, Kind: model.KindDomain},
		ProviderIDs: []string{"hackernews", "dnsrecon"},
		TotalItems:  7,
		Elapsed:     1250 * time.Millisecond,
		CreatedAt:   createdAt,
	}
}

func TestSQLite_AppendAndList(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, sampleRecord("acme.example", time.Now().UTC())))

	records, err := s.List(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "acme.example", rec.Query.Target)
	assert.Equal(t, model.KindDomain, rec.Query.Kind)
	assert.Equal(t, []string{"hackernews", "dnsrecon"}, rec.ProviderIDs)
	assert.Equal(t, 7, rec.TotalItems)
	assert.Equal(t, 1250*time.Millisecond, rec.Elapsed)
}

func TestSQLite_ListFiltersByTarget(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Append(ctx, sampleRecord("a.example", now)))
	require.NoError(t, s.Append(ctx, sampleRecord("b.example", now)))
	require.NoError(t, s.Append(ctx, sampleRecord("a.example", now.Add(time.Second))))

	records, err := s.List(ctx, HistoryFilter{Target: "a.example"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, "a.example", rec.Query.Target)
	}
}

func TestSQLite_ListNewestFirstWithLimit(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := sampleRecord("acme.example", base.Add(time.Duration(i)*time.Minute))
		rec.TotalItems = i
		require.NoError(t, s.Append(ctx, rec))
	}

	records, err := s.List(ctx, HistoryFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 4, records[0].TotalItems)
	assert.Equal(t, 3, records[1].TotalItems)

	// Offset pages past the newest entries.
	records, err = s.List(ctx, HistoryFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].TotalItems)
}

func TestSQLite_AppendAssignsIDAndTimestamp(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	rec := sampleRecord("acme.example", time.Time{})
	require.NoError(t, s.Append(ctx, rec))

	records, err := s.List(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), configStore("mysql", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_SQLiteDefault(t *testing.T) {
	s, err := Open(context.Background(), configStore("", filepath.Join(t.TempDir(), "x.db")))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(context.Background()))
}
