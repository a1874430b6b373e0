package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsward/osint-core/internal/model"
	"github.com/newsward/osint-core/pkg/ghsearch"
)

type fakeGHClient struct {
	lastReq ghsearch.RepoSearchRequest
	resp    *ghsearch.RepoSearchResponse
	err     error
}

func (f *fakeGHClient) SearchRepos(_ context.Context, req ghsearch.RepoSearchRequest) (*ghsearch.RepoSearchResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestGitHub_FetchKeyword(t *testing.T) {
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	client := &fakeGHClient{resp: &ghsearch.RepoSearchResponse{
		TotalCount: 2,
		Items: []ghsearch.Repo{
			{FullName: "acme/api", Description: "Acme public API", HTMLURL: "https://github.com/acme/api", Language: "Go", Stars: 420, Forks: 12, CreatedAt: &created},
			{FullName: "acme/legacy", Archived: true, Stars: 3},
		},
	}}
	gh := NewGitHub(client, 10*time.Second, true)

	raw, err := gh.Fetch(context.Background(), model.Query{Target: "acme", Kind: model.KindKeyword})
	require.NoError(t, err)
	require.Len(t, raw.Items, 2)
	assert.False(t, raw.Partial)

	first := raw.Items[0]
	assert.Equal(t, "acme/api", first.ID)
	assert.Equal(t, model.EvidenceRepo, first.Kind)
	assert.Equal(t, 420, first.Engagement)
	assert.Equal(t, 420, first.Metadata["stars"])
	assert.Equal(t, "Go", first.Metadata["language"])
	assert.Equal(t, true, raw.Items[1].Metadata["archived"])
}

func TestGitHub_UsernameScopesToUser(t *testing.T) {
	client := &fakeGHClient{resp: &ghsearch.RepoSearchResponse{}}
	gh := NewGitHub(client, time.Second, true)

	_, err := gh.Fetch(context.Background(), model.Query{Target: "octocat", Kind: model.KindUsername})
	require.NoError(t, err)
	assert.Equal(t, "user:octocat", client.lastReq.Query)
	assert.Equal(t, "stars", client.lastReq.Sort)
}

func TestGitHub_IncompleteResultsMarkPartial(t *testing.T) {
	client := &fakeGHClient{resp: &ghsearch.RepoSearchResponse{IncompleteResults: true}}
	gh := NewGitHub(client, time.Second, true)

	raw, err := gh.Fetch(context.Background(), model.Query{Target: "acme", Kind: model.KindKeyword})
	require.NoError(t, err)
	assert.True(t, raw.Partial)
	require.NotEmpty(t, raw.Warnings)
	assert.Contains(t, raw.Warnings[0], "incomplete")
}

func TestStarWeight(t *testing.T) {
	assert.Equal(t, 0.1, starWeight(0))
	assert.InDelta(t, 0.6, starWeight(500), 0.001)
	assert.Equal(t, 1.0, starWeight(5000))
}
