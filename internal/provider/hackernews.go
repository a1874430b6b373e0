package provider

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/newsward/osint-core/internal/model"
	"github.com/newsward/osint-core/pkg/hnsearch"
)

// HackerNews is the engagement-ranked feed adapter: items carry an author,
// a points count, and a publication time.
type HackerNews struct {
	client  hnsearch.Client
	timeout time.Duration
	enabled bool
}

// NewHackerNews creates the Hacker News adapter.
func NewHackerNews(client hnsearch.Client, timeout time.Duration, enabled bool) *HackerNews {
	return &HackerNews{client: client, timeout: timeout, enabled: enabled}
}

// Descriptor implements Adapter.
func (h *HackerNews) Descriptor() Descriptor {
	return Descriptor{
		ID: "hackernews",
		Capabilities: []model.QueryKind{
			model.KindKeyword, model.KindUsername, model.KindHashtag,
			model.KindFullName, model.KindDomain, model.KindURL,
		},
		Timeout:          h.timeout,
		EnabledByDefault: h.enabled,
	}
}

// Supports implements Adapter.
func (h *HackerNews) Supports(kind model.QueryKind) bool {
	return h.Descriptor().Accepts(kind)
}

// Fetch implements Adapter.
func (h *HackerNews) Fetch(ctx context.Context, query model.Query) (*RawResponse, error) {
	req := hnsearch.SearchRequest{
		Query:        query.Target,
		HitsPerPage:  query.MaxResults(50),
		NumericAfter: query.Filters.Since,
	}
	if query.Kind == model.KindUsername {
		// Author-scoped search instead of full-text.
		req.Query = ""
		req.Tags = "author_" + query.Target
	}

	resp, err := h.client.Search(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "hackernews: fetch")
	}

	raw := &RawResponse{Items: make([]RawItem, 0, len(resp.Hits))}
	for _, hit := range resp.Hits {
		published := hit.CreatedAt()
		body := hit.StoryText
		if body == "" {
			body = hit.CommentText
		}
		raw.Items = append(raw.Items, RawItem{
			ID:          hit.ObjectID,
			Kind:        model.EvidencePost,
			Title:       hit.Title,
			Body:        body,
			URL:         hit.URL,
			Author:      hit.Author,
			PublishedAt: &published,
			Engagement:  hit.Points,
			Weight:      engagementWeight(hit.Points),
			Metadata: map[string]any{
				"num_comments": hit.NumComments,
				"object_id":    hit.ObjectID,
			},
		})
	}
	return raw, nil
}

// engagementWeight maps a points count onto a 0-1 relevance hint. The curve
// saturates around 500 points so a single viral story cannot drown the rest.
func engagementWeight(points int) float64 {
	if points <= 0 {
		return 0.1
	}
	w := 0.1 + float64(points)/500.0
	if w > 1.0 {
		w = 1.0
	}
	return w
}
