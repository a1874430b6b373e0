// Package dispatch fans an investigative query out to every capable provider
// and collects one outcome per provider, tolerating any subset failing.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newsward/osint-core/internal/model"
	"github.com/newsward/osint-core/internal/normalize"
	"github.com/newsward/osint-core/internal/provider"
)

// ErrNoProviders is returned when the query kind matches none of the
// requested providers. It is the only dispatch-level failure besides
// cancellation before start; adapter errors never propagate past the
// coordinator.
var ErrNoProviders = errors.New("dispatch: no providers accept this query kind")

// Coordinator invokes all capable adapters concurrently, each under its own
// timeout, and completes only after every invocation has settled. One
// provider's outage never suppresses evidence from the others.
type Coordinator struct {
	registry       *provider.Registry
	normalizer     *normalize.Normalizer
	defaultTimeout time.Duration
	maxConcurrent  int
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithDefaultTimeout sets the fallback per-provider timeout for descriptors
// that carry none. Default: 15s.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.defaultTimeout = d
	}
}

// WithMaxConcurrent bounds the number of simultaneously running adapter
// invocations. Zero or negative means unbounded.
func WithMaxConcurrent(n int) Option {
	return func(c *Coordinator) {
		c.maxConcurrent = n
	}
}

// NewCoordinator creates a dispatch coordinator over an explicit registry.
func NewCoordinator(registry *provider.Registry, normalizer *normalize.Normalizer, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:       registry,
		normalizer:     normalizer,
		defaultTimeout: 15 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dispatch runs the query against the named providers. Providers whose
// capability set does not include the query kind are silently excluded; that
// is caller configuration, not a runtime error. Outcomes come back in the
// order of providerIDs regardless of which adapter finished first.
//
// An empty providerIDs list means "all providers enabled by default".
func (c *Coordinator) Dispatch(ctx context.Context, query model.Query, providerIDs []string) (*model.AggregationResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "dispatch: cancelled before start")
	}

	if len(providerIDs) == 0 {
		providerIDs = c.registry.DefaultEnabled()
	}

	// Capability filter, preserving input order.
	type slot struct {
		id      string
		adapter provider.Adapter
	}
	var slots []slot
	for _, id := range providerIDs {
		a := c.registry.Get(id)
		if a == nil || !a.Supports(query.Kind) {
			continue
		}
		slots = append(slots, slot{id: id, adapter: a})
	}
	if len(slots) == 0 {
		return nil, eris.Wrapf(ErrNoProviders, "dispatch: kind %s", query.Kind)
	}

	log := zap.L().With(
		zap.String("target", query.Target),
		zap.String("kind", string(query.Kind)),
	)
	log.Info("dispatch: fan-out", zap.Int("providers", len(slots)))

	result := &model.AggregationResult{
		Query:     query,
		Outcomes:  make([]model.ProviderOutcome, len(slots)),
		StartedAt: time.Now().UTC(),
	}

	// Each goroutine writes exactly once to its own pre-allocated slot, so
	// the collection buffer needs no locking. The group waits for every
	// invocation to settle; goroutines never return an error, so no failure
	// can abort a sibling.
	var g errgroup.Group
	if c.maxConcurrent > 0 {
		g.SetLimit(c.maxConcurrent)
	}
	for i, s := range slots {
		g.Go(func() error {
			result.Outcomes[i] = c.invoke(ctx, query, s.id, s.adapter)
			return nil
		})
	}
	_ = g.Wait()

	result.CompletedAt = time.Now().UTC()
	result.TotalItems = result.CountItems()

	log.Info("dispatch: complete",
		zap.Int("total_items", result.TotalItems),
		zap.Duration("elapsed", result.CompletedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

// invoke runs a single adapter under its own timeout and converts every
// failure mode (error, timeout, panic) into a ProviderOutcome. Nothing an
// adapter does escapes this boundary.
func (c *Coordinator) invoke(ctx context.Context, query model.Query, id string, a provider.Adapter) model.ProviderOutcome {
	timeout := a.Descriptor().Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}

	// Session already cancelled: report without starting the upstream call.
	if ctx.Err() != nil {
		return model.ProviderOutcome{
			ProviderID:   id,
			Status:       model.StatusFailed,
			ErrorMessage: model.CancelledMessage,
		}
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := fetchSafe(cctx, a, query)
	elapsed := time.Since(start)

	switch {
	case ctx.Err() != nil:
		// Whole-session cancellation, not this provider's fault.
		return model.ProviderOutcome{
			ProviderID:   id,
			Status:       model.StatusFailed,
			ErrorMessage: model.CancelledMessage,
			Elapsed:      elapsed,
		}
	case cctx.Err() == context.DeadlineExceeded:
		zap.L().Warn("dispatch: provider timed out",
			zap.String("provider", id),
			zap.Duration("timeout", timeout),
		)
		if elapsed < timeout {
			elapsed = timeout
		}
		return model.ProviderOutcome{
			ProviderID:   id,
			Status:       model.StatusTimedOut,
			ErrorMessage: fmt.Sprintf("no answer within %s", timeout),
			Elapsed:      elapsed,
		}
	case err != nil:
		zap.L().Warn("dispatch: provider failed",
			zap.String("provider", id),
			zap.Error(err),
		)
		return model.ProviderOutcome{
			ProviderID:   id,
			Status:       model.StatusFailed,
			ErrorMessage: err.Error(),
			Elapsed:      elapsed,
		}
	}

	items := c.normalizer.Normalize(id, raw, query.Filters.MaxResults)
	status := model.StatusSuccess
	msg := ""
	if raw.Partial {
		status = model.StatusPartialSuccess
		if len(raw.Warnings) > 0 {
			msg = raw.Warnings[0]
		}
	}
	return model.ProviderOutcome{
		ProviderID:   id,
		Status:       status,
		Items:        items,
		ErrorMessage: msg,
		Elapsed:      elapsed,
	}
}

// fetchSafe contains adapter panics so a buggy adapter degrades to a failed
// outcome instead of taking the session down.
func fetchSafe(ctx context.Context, a provider.Adapter, query model.Query) (raw *provider.RawResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = eris.Errorf("adapter panic: %v", r)
		}
	}()
	return a.Fetch(ctx, query)
}
