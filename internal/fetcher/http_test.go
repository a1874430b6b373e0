package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsward/osint-core/internal/resilience"
)

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "osint-core/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "token abc", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := New(Options{})
	body, err := f.Get(context.Background(), srv.URL, map[string]string{"Authorization": "token abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGet_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("fine"))
	}))
	defer srv.Close()

	f := New(Options{MaxRetries: 3})
	body, err := f.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "fine", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_429ClassifiedAsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := New(Options{MaxRetries: 2})
	_, err := f.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, resilience.IsRateLimit(err))
}

func TestGet_4xxNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Options{MaxRetries: 3})
	_, err := f.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var pe *resilience.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, resilience.FailureUpstream, pe.Class)
	assert.Equal(t, http.StatusNotFound, pe.StatusCode)
}

func TestGetJSON_DecodesInto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"acme","count":7}`))
	}))
	defer srv.Close()

	f := New(Options{})
	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.NoError(t, f.GetJSON(context.Background(), srv.URL, nil, &out))
	assert.Equal(t, "acme", out.Name)
	assert.Equal(t, 7, out.Count)
}

func TestGetJSON_MalformedIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	f := New(Options{MaxRetries: 3})
	var out map[string]any
	err := f.GetJSON(context.Background(), srv.URL, nil, &out)
	require.Error(t, err)
	// The body fetch succeeded; only the decode failed, so no retries happen.
	assert.Equal(t, int32(1), calls.Load())

	var pe *resilience.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, resilience.FailureMalformed, pe.Class)
}

func TestGet_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(Options{MaxRetries: 1})
	_, err := f.Get(ctx, srv.URL, nil)
	require.Error(t, err)
}

func TestLimiterFor_PerHost(t *testing.T) {
	f := New(Options{})
	a := f.limiterFor("https://one.example/path")
	b := f.limiterFor("https://one.example/other")
	c := f.limiterFor("https://two.example/")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}
