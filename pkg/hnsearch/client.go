// Package hnsearch wraps the Algolia Hacker News search API.
package hnsearch

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/newsward/osint-core/internal/fetcher"
)

const defaultBaseURL = "https://hn.algolia.com/api/v1"

// Client searches Hacker News stories and comments.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest holds the query parameters for GET /search.
type SearchRequest struct {
	Query        string
	Tags         string // e.g., "story", "comment"
	HitsPerPage  int
	NumericAfter *time.Time // created_at_i lower bound
}

// SearchResponse is the Algolia search result envelope.
type SearchResponse struct {
	Hits    []Hit `json:"hits"`
	NbHits  int   `json:"nbHits"`
	Page    int   `json:"page"`
	NbPages int   `json:"nbPages"`
}

// Hit is a single Hacker News search result.
type Hit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	StoryText   string `json:"story_text"`
	CommentText string `json:"comment_text"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAtI  int64  `json:"created_at_i"`
}

// CreatedAt converts the epoch timestamp into a time.Time.
func (h Hit) CreatedAt() time.Time {
	return time.Unix(h.CreatedAtI, 0).UTC()
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL. Empty values are ignored.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

type httpClient struct {
	baseURL string
	fetcher *fetcher.HTTPFetcher
}

// NewClient creates a Hacker News search client on top of the shared fetcher.
func NewClient(f *fetcher.HTTPFetcher, opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		fetcher: f,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Query == "" && req.Tags == "" {
		return nil, eris.New("hnsearch: empty query")
	}

	params := url.Values{}
	if req.Query != "" {
		params.Set("query", req.Query)
	}
	if req.Tags != "" {
		params.Set("tags", req.Tags)
	}
	if req.HitsPerPage > 0 {
		params.Set("hitsPerPage", fmt.Sprintf("%d", req.HitsPerPage))
	}
	if req.NumericAfter != nil {
		params.Set("numericFilters", fmt.Sprintf("created_at_i>%d", req.NumericAfter.Unix()))
	}

	var resp SearchResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, eris.Wrap(err, "hnsearch: search")
	}
	return &resp, nil
}
