// Package ghsearch wraps the GitHub repository and user search API.
package ghsearch

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/newsward/osint-core/internal/fetcher"
)

const defaultBaseURL = "https://api.github.com"

// Client searches GitHub repositories.
type Client interface {
	SearchRepos(ctx context.Context, req RepoSearchRequest) (*RepoSearchResponse, error)
}

// RepoSearchRequest holds query parameters for GET /search/repositories.
type RepoSearchRequest struct {
	Query   string
	Sort    string // stars, forks, updated
	PerPage int
}

// RepoSearchResponse is the GitHub search envelope.
type RepoSearchResponse struct {
	TotalCount        int    `json:"total_count"`
	IncompleteResults bool   `json:"incomplete_results"`
	Items             []Repo `json:"items"`
}

// Repo is a single repository search result.
type Repo struct {
	FullName    string     `json:"full_name"`
	Description string     `json:"description"`
	HTMLURL     string     `json:"html_url"`
	Language    string     `json:"language"`
	Stars       int        `json:"stargazers_count"`
	Forks       int        `json:"forks_count"`
	OpenIssues  int        `json:"open_issues_count"`
	Archived    bool       `json:"archived"`
	PushedAt    *time.Time `json:"pushed_at"`
	CreatedAt   *time.Time `json:"created_at"`
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

// WithToken sets a bearer token for authenticated (higher-quota) requests.
func WithToken(token string) Option {
	return func(c *httpClient) {
		c.token = token
	}
}

type httpClient struct {
	baseURL string
	token   string
	fetcher *fetcher.HTTPFetcher
}

// NewClient creates a GitHub search client on top of the shared fetcher.
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

func (c *httpClient) SearchRepos(ctx context.Context, req RepoSearchRequest) (*RepoSearchResponse, error) {
	if req.Query == "" {
		return nil, eris.New("ghsearch: empty query")
	}

	params := url.Values{}
	params.Set("q", req.Query)
	if req.Sort != "" {
		params.Set("sort", req.Sort)
	}
	if req.PerPage > 0 {
		params.Set("per_page", fmt.Sprintf("%d", req.PerPage))
	}

	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}

	var resp RepoSearchResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/search/repositories?"+params.Encode(), headers, &resp); err != nil {
		return nil, eris.Wrap(err, "ghsearch: search repositories")
	}
	return &resp, nil
}
