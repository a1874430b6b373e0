package ghsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsward/osint-core/internal/fetcher"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := fetcher.New(fetcher.Options{MaxRetries: 1})
	return NewClient(f, append([]Option{WithBaseURL(srv.URL)}, opts...)...)
}

func TestSearchRepos_RequestShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "acme in:name", r.URL.Query().Get("q"))
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		assert.Equal(t, "25", r.URL.Query().Get("per_page"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
		_, _ = w.Write([]byte(`{"total_count":1,"items":[{"full_name":"acme/api","stargazers_count":42,"language":"Go"}]}`))
	})

	resp, err := client.SearchRepos(context.Background(), RepoSearchRequest{
		Query:   "acme in:name",
		Sort:    "stars",
		PerPage: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalCount)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "acme/api", resp.Items[0].FullName)
	assert.Equal(t, 42, resp.Items[0].Stars)
}

func TestSearchRepos_TokenHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}, WithToken("secret"))

	_, err := client.SearchRepos(context.Background(), RepoSearchRequest{Query: "x"})
	require.NoError(t, err)
}

func TestSearchRepos_EmptyQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := client.SearchRepos(context.Background(), RepoSearchRequest{})
	require.Error(t, err)
}

func TestSearchRepos_RateLimitSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"API rate limit exceeded"}`, http.StatusForbidden)
	})
	_, err := client.SearchRepos(context.Background(), RepoSearchRequest{Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
