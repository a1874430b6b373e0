package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newsward/osint-core/internal/model"
	"github.com/newsward/osint-core/internal/store"
)

// HistoryWriter appends session records to the store off the request path.
// Writes are best-effort: a slow or broken store can neither delay nor fail
// a lookup. Failures are logged and swallowed.
type HistoryWriter struct {
	store   store.HistoryStore
	queue   chan model.HistoryRecord
	timeout time.Duration

	once sync.Once
	done chan struct{}
}

// NewHistoryWriter starts the background writer over a bounded queue.
// A nil store yields a writer that drops everything, which keeps the
// session code free of nil checks.
func NewHistoryWriter(st store.HistoryStore, queueSize int) *HistoryWriter {
	if queueSize <= 0 {
		queueSize = 64
	}
	w := &HistoryWriter{
		store:   st,
		queue:   make(chan model.HistoryRecord, queueSize),
		timeout: 10 * time.Second,
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *HistoryWriter) run() {
	defer close(w.done)
	for rec := range w.queue {
		if w.store == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		if err := w.store.Append(ctx, rec); err != nil {
			zap.L().Warn("session: history write failed",
				zap.String("target", rec.Query.Target),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Enqueue hands a record to the writer without blocking. When the queue is
// full the record is dropped; history is a side channel, not a ledger.
func (w *HistoryWriter) Enqueue(rec model.HistoryRecord) {
	select {
	case w.queue <- rec:
	default:
		zap.L().Warn("session: history queue full, dropping record",
			zap.String("target", rec.Query.Target),
		)
	}
}

// Close stops accepting records and drains the queue.
func (w *HistoryWriter) Close() {
	w.once.Do(func() {
		close(w.queue)
	})
	<-w.done
}
