// Package normalize folds heterogeneous provider payloads into the canonical
// evidence schema.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/newsward/osint-core/internal/model"
	"github.com/newsward/osint-core/internal/provider"
)

// Normalizer maps raw adapter output into EvidenceItems. It is pure: the
// same raw input always yields the same ordered sequence.
type Normalizer struct {
	// DefaultMaxResults caps a provider's result set when the query carries
	// no explicit limit. Zero means 50.
	DefaultMaxResults int
}

const fallbackMaxResults = 50

// Normalize converts one provider's raw response into canonical evidence.
// The raw items are capped to maxResults (highest weight first, not first-N)
// before mapping, then deduplicated within the provider. Cross-provider
// duplicates are deliberately kept: the same fact reported by two sources is
// corroboration, not noise.
func (n *Normalizer) Normalize(providerID string, raw *provider.RawResponse, maxResults int) []model.EvidenceItem {
	if raw == nil || len(raw.Items) == 0 {
		return nil
	}
	if maxResults <= 0 {
		maxResults = n.DefaultMaxResults
	}
	if maxResults <= 0 {
		maxResults = fallbackMaxResults
	}

	// Order by weight descending; ties break on raw ID so output is stable.
	items := make([]provider.RawItem, len(raw.Items))
	copy(items, raw.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Weight != items[j].Weight {
			return items[i].Weight > items[j].Weight
		}
		return items[i].ID < items[j].ID
	})

	// Per-provider dedupe: same URL, or same (title, author) when no URL.
	// The colliding item with the higher engagement (then weight) wins.
	seen := make(map[string]int) // dedupe key -> index into out
	out := make([]model.EvidenceItem, 0, min(len(items), maxResults))

	for _, ri := range items {
		item := toEvidence(providerID, ri)
		key := dedupeKey(item)

		if idx, dup := seen[key]; dup {
			if better(item, out[idx]) {
				out[idx] = item
			}
			continue
		}

		if len(out) >= maxResults {
			continue
		}
		seen[key] = len(out)
		out = append(out, item)
	}

	return out
}

func toEvidence(providerID string, ri provider.RawItem) model.EvidenceItem {
	kind := ri.Kind
	if kind == "" {
		kind = model.EvidenceFinding
	}
	weight := ri.Weight
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}
	return model.EvidenceItem{
		ID:              itemID(providerID, ri),
		ProviderID:      providerID,
		Kind:            kind,
		Title:           ri.Title,
		Body:            ri.Body,
		URL:             ri.URL,
		Author:          ri.Author,
		PublishedAt:     ri.PublishedAt,
		EngagementCount: ri.Engagement,
		Metadata:        ri.Metadata,
		Weight:          weight,
	}
}

// itemID derives a stable evidence ID. Adapter-assigned IDs are kept;
// otherwise the ID is a content hash, so repeated normalization of the same
// raw input is reproducible.
func itemID(providerID string, ri provider.RawItem) string {
	if ri.ID != "" {
		return providerID + ":" + ri.ID
	}
	sum := sha256.Sum256([]byte(ri.URL + "\x00" + ri.Title + "\x00" + ri.Author))
	return providerID + ":" + hex.EncodeToString(sum[:8])
}

func better(a, b model.EvidenceItem) bool {
	if a.EngagementCount != b.EngagementCount {
		return a.EngagementCount > b.EngagementCount
	}
	return a.Weight > b.Weight
}

// dedupeKey builds the collision key: normalized URL when present, otherwise
// the casefolded (title, author) pair. Unicode is NFKC-normalized so visually
// identical titles collide regardless of encoding.
func dedupeKey(item model.EvidenceItem) string {
	if item.URL != "" {
		return "u\x00" + canonicalToken(strings.TrimSuffix(item.URL, "/"))
	}
	return "t\x00" + canonicalToken(item.Title) + "\x00" + canonicalToken(item.Author)
}

func canonicalToken(s string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))
}
