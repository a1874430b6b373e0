// Package provider defines the adapter contract for external intelligence
// sources and the explicit registry the coordinator is constructed with.
package provider

import (
	"context"
	"sync"
	"time"

	"github.com/newsward/osint-core/internal/model"
)

// Descriptor is the static per-provider configuration, loaded at process
// start and immutable afterwards.
type Descriptor struct {
	ID               string
	Capabilities     []model.QueryKind
	Timeout          time.Duration
	EnabledByDefault bool
}

// Accepts reports whether the provider can serve queries of the given kind.
func (d Descriptor) Accepts(kind model.QueryKind) bool {
	for _, k := range d.Capabilities {
		if k == kind {
			return true
		}
	}
	return false
}

// RawItem is one un-normalized unit of information as the adapter's upstream
// shaped it. Provider-specific fields go into Metadata verbatim; the
// normalizer maps the rest into the canonical schema.
type RawItem struct {
	ID          string
	Kind        model.EvidenceKind
	Title       string
	Body        string
	URL         string
	Author      string
	PublishedAt *time.Time
	Engagement  int
	Weight      float64
	Metadata    map[string]any
}

// RawResponse is the complete payload from one adapter invocation. Partial
// marks responses where some upstream sub-calls failed but usable items were
// still produced.
type RawResponse struct {
	Items    []RawItem
	Partial  bool
	Warnings []string
}

// Adapter translates a canonical query into one external source's protocol.
// Implementations are stateless and own all HTTP/auth concerns for their
// upstream; they must return promptly once ctx is cancelled, and any retries
// they perform must fit within the single timeout budget the coordinator
// grants via ctx.
type Adapter interface {
	// Descriptor returns the provider's static configuration.
	Descriptor() Descriptor
	// Supports checks whether the adapter accepts a query kind.
	Supports(kind model.QueryKind) bool
	// Fetch executes the upstream call(s) for a query.
	Fetch(ctx context.Context, query model.Query) (*RawResponse, error)
}

// Registry holds the configured adapters. It is populated once at startup
// and handed to the coordinator, so tests can swap in fake adapters.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register adds an adapter. Re-registering an ID replaces the adapter but
// keeps its original position.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := a.Descriptor().ID
	if _, exists := r.adapters[id]; !exists {
		r.order = append(r.order, id)
	}
	r.adapters[id] = a
}

// Get returns an adapter by ID, or nil if not registered.
func (r *Registry) Get(id string) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adapters[id]
}

// List returns all registered provider IDs in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// DefaultEnabled returns the IDs of providers enabled by default, in
// registration order.
func (r *Registry) DefaultEnabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, id := range r.order {
		if r.adapters[id].Descriptor().EnabledByDefault {
			ids = append(ids, id)
		}
	}
	return ids
}
