package model

import "time"

// EvidenceKind classifies a normalized evidence item.
type EvidenceKind string

const (
	EvidencePost        EvidenceKind = "post"
	EvidenceRepo        EvidenceKind = "repo"
	EvidenceFinding     EvidenceKind = "finding"
	EvidenceDNSRecord   EvidenceKind = "dns-record"
	EvidenceWhoisField  EvidenceKind = "whois-field"
	EvidenceCertificate EvidenceKind = "certificate"
	EvidencePortScan    EvidenceKind = "port-scan"
	EvidenceThreatIntel EvidenceKind = "threat-intel"
)

// EvidenceItem is one normalized unit of information returned by a provider.
// Items are created by the normalizer and never mutated afterwards.
//
// Metadata preserves provider-specific fields verbatim for downstream
// rendering; the canonical schema never drops what it has no slot for.
type EvidenceItem struct {
	ID              string         `json:"id"`
	ProviderID      string         `json:"provider_id"`
	Kind            EvidenceKind   `json:"kind"`
	Title           string         `json:"title,omitempty"`
	Body            string         `json:"body,omitempty"`
	URL             string         `json:"url,omitempty"`
	Author          string         `json:"author,omitempty"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	EngagementCount int            `json:"engagement_count,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Weight          float64        `json:"weight"`
}

// MetaString returns a string metadata value, or "" when absent or not a string.
func (e EvidenceItem) MetaString(key string) string {
	if v, ok := e.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// MetaBool returns a boolean metadata value, defaulting to false.
func (e EvidenceItem) MetaBool(key string) bool {
	v, _ := e.Metadata[key].(bool)
	return v
}

// MetaInt returns an integer metadata value, tolerating float64 from JSON decoding.
func (e EvidenceItem) MetaInt(key string) (int, bool) {
	switch v := e.Metadata[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
