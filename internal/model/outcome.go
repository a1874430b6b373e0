package model

import "time"

// OutcomeStatus is the terminal state of one provider invocation.
type OutcomeStatus string

const (
	StatusSuccess        OutcomeStatus = "success"
	StatusPartialSuccess OutcomeStatus = "partial_success"
	StatusFailed         OutcomeStatus = "failed"
	StatusTimedOut       OutcomeStatus = "timed_out"
)

// CancelledMessage is the error message substituted for invocations that were
// still in flight when the session was cancelled.
const CancelledMessage = "cancelled"

// ProviderOutcome records how a single provider answered one session.
// Invariant: Status == StatusFailed implies len(Items) == 0.
type ProviderOutcome struct {
	ProviderID   string         `json:"provider"`
	Status       OutcomeStatus  `json:"status"`
	Items        []EvidenceItem `json:"items"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Elapsed      time.Duration  `json:"elapsed"`
}

// OK reports whether the provider produced usable evidence.
func (o ProviderOutcome) OK() bool {
	return o.Status == StatusSuccess || o.Status == StatusPartialSuccess
}

// AggregationResult is the output of one aggregation session. Outcomes are
// ordered by dispatch order, not completion order, and the value is immutable
// once all outcomes are collected.
type AggregationResult struct {
	Query       Query             `json:"query"`
	Outcomes    []ProviderOutcome `json:"results"`
	TotalItems  int               `json:"total_items"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
}

// CountItems recomputes TotalItems from the collected outcomes.
func (r *AggregationResult) CountItems() int {
	total := 0
	for _, o := range r.Outcomes {
		total += len(o.Items)
	}
	return total
}
