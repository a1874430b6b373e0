// Package session ties dispatch, normalization, and risk scoring together
// for one user-initiated query.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newsward/osint-core/internal/dispatch"
	"github.com/newsward/osint-core/internal/model"
	"github.com/newsward/osint-core/internal/risk"
)

// Result is the session's structured output for the UI boundary: the
// multi-provider aggregation plus, for domain/URL queries, the risk block.
type Result struct {
	Aggregation *model.AggregationResult `json:"aggregation"`
	Risk        *model.RiskAssessment    `json:"risk,omitempty"`
}

// Service builds and runs aggregation sessions. Two sessions with the same
// query may return different results as upstream sources move; only each
// session's internal determinism is guaranteed.
type Service struct {
	coordinator *dispatch.Coordinator
	engine      *risk.Engine
	history     *HistoryWriter
}

// NewService creates the session service. engine may be nil when risk
// scoring is not wanted.
func NewService(coordinator *dispatch.Coordinator, engine *risk.Engine, history *HistoryWriter) *Service {
	return &Service{
		coordinator: coordinator,
		engine:      engine,
		history:     history,
	}
}

// Run executes one aggregation session under the given context. Cancelling
// the context cancels the session cooperatively.
func (s *Service) Run(ctx context.Context, query model.Query, providerIDs []string) (*Result, error) {
	agg, err := s.coordinator.Dispatch(ctx, query, providerIDs)
	if err != nil {
		return nil, err
	}

	res := &Result{Aggregation: agg}

	if s.engine != nil && query.Kind.Technical() {
		var evidence []model.EvidenceItem
		for _, outcome := range agg.Outcomes {
			evidence = append(evidence, outcome.Items...)
		}
		res.Risk = s.engine.Score(query.Target, evidence)
	}

	dispatched := make([]string, 0, len(agg.Outcomes))
	for _, outcome := range agg.Outcomes {
		dispatched = append(dispatched, outcome.ProviderID)
	}
	if s.history == nil {
		return res, nil
	}
	s.history.Enqueue(model.HistoryRecord{
		ID:          uuid.New().String(),
		Query:       query,
		ProviderIDs: dispatched,
		TotalItems:  agg.TotalItems,
		Elapsed:     agg.CompletedAt.Sub(agg.StartedAt),
		CreatedAt:   time.Now().UTC(),
	})

	return res, nil
}

// Close flushes the history writer.
func (s *Service) Close() {
	if s.history != nil {
		s.history.Close()
	}
}

// Session is one cancellable run. The CRUD/API layer creates a session per
// inbound request and wires Cancel to the client connection's lifetime.
type Session struct {
	svc    *Service
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSession creates a session over the service.
func (s *Service) NewSession() *Session {
	return &Session{svc: s}
}

// Run executes the session. It may be called once; Cancel aborts it from
// another goroutine.
func (s *Session) Run(ctx context.Context, query model.Query, providerIDs []string) (*Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	return s.svc.Run(runCtx, query, providerIDs)
}

// Cancel aborts the in-flight run. Completed provider outcomes are
// preserved; unfinished ones come back failed with a cancelled message.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}
