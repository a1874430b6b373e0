package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/newsward/osint-core/internal/model"
	"github.com/newsward/osint-core/pkg/ghsearch"
)

// GitHub is the structural adapter shape: results have no natural author
// ranking and instead carry rich metadata (stars, forks, language).
type GitHub struct {
	client  ghsearch.Client
	timeout time.Duration
	enabled bool
}

// NewGitHub creates the GitHub repository search adapter.
func NewGitHub(client ghsearch.Client, timeout time.Duration, enabled bool) *GitHub {
	return &GitHub{client: client, timeout: timeout, enabled: enabled}
}

// Descriptor implements Adapter.
func (g *GitHub) Descriptor() Descriptor {
	return Descriptor{
		ID: "github",
		Capabilities: []model.QueryKind{
			model.KindKeyword, model.KindUsername, model.KindDomain, model.KindEmail,
		},
		Timeout:          g.timeout,
		EnabledByDefault: g.enabled,
	}
}

// Supports implements Adapter.
func (g *GitHub) Supports(kind model.QueryKind) bool {
	return g.Descriptor().Accepts(kind)
}

// Fetch implements Adapter.
func (g *GitHub) Fetch(ctx context.Context, query model.Query) (*RawResponse, error) {
	q := query.Target
	if query.Kind == model.KindUsername {
		q = fmt.Sprintf("user:%s", query.Target)
	}

	resp, err := g.client.SearchRepos(ctx, ghsearch.RepoSearchRequest{
		Query:   q,
		Sort:    "stars",
		PerPage: query.MaxResults(50),
	})
	if err != nil {
		return nil, eris.Wrap(err, "github: fetch")
	}

	raw := &RawResponse{Items: make([]RawItem, 0, len(resp.Items))}
	for _, repo := range resp.Items {
		raw.Items = append(raw.Items, RawItem{
			ID:          repo.FullName,
			Kind:        model.EvidenceRepo,
			Title:       repo.FullName,
			Body:        repo.Description,
			URL:         repo.HTMLURL,
			PublishedAt: repo.CreatedAt,
			Engagement:  repo.Stars,
			Weight:      starWeight(repo.Stars),
			Metadata: map[string]any{
				"stars":       repo.Stars,
				"forks":       repo.Forks,
				"open_issues": repo.OpenIssues,
				"language":    repo.Language,
				"archived":    repo.Archived,
			},
		})
	}
	if resp.IncompleteResults {
		raw.Partial = true
		raw.Warnings = append(raw.Warnings, "github search returned incomplete results")
	}
	return raw, nil
}

func starWeight(stars int) float64 {
	if stars <= 0 {
		return 0.1
	}
	w := 0.1 + float64(stars)/1000.0
	if w > 1.0 {
		w = 1.0
	}
	return w
}
