// Package fetcher provides a shared rate-limited HTTP client for the
// provider API wrappers under pkg/.
package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/newsward/osint-core/internal/resilience"
)

// Options configures the HTTP fetcher.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RateLimiters map[string]*rate.Limiter // per-host; hosts not listed get the default limiter
}

// HTTPFetcher performs GET requests with per-host rate limiting and bounded
// retries. Retries respect the caller's context deadline, so they always fit
// inside the per-provider timeout budget granted by the dispatch coordinator.
type HTTPFetcher struct {
	client *http.Client
	opts   Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// DefaultRateLimiters returns the default per-host rate limiters for the
// upstream APIs the reference providers talk to.
func DefaultRateLimiters() map[string]*rate.Limiter {
	return map[string]*rate.Limiter{
		"hn.algolia.com": rate.NewLimiter(10, 10),
		"api.github.com": rate.NewLimiter(5, 5),
		"rdap.org":       rate.NewLimiter(5, 5),
	}
}

// New creates an HTTPFetcher with the given options.
func New(opts Options) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "osint-core/1.0"
	}
	limiters := make(map[string]*rate.Limiter)
	for k, v := range opts.RateLimiters {
		limiters[k] = v
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: limiters,
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rate.NewLimiter(20, 20)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if lim, ok := f.limiters[u.Host]; ok {
		return lim
	}
	lim := rate.NewLimiter(20, 20)
	f.limiters[u.Host] = lim
	return lim
}

// Get fetches the URL and returns the response body. Non-2xx responses are
// returned as classified provider errors; 429 and 5xx are retried.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = f.opts.MaxRetries

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		if err := f.limiterFor(rawURL).Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: create request")
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, resilience.NewProviderError(resilience.FailureNetwork, 0, err)
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resilience.NewProviderError(resilience.FailureNetwork, 0, err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, resilience.NewProviderError(resilience.FailureRateLimit, resp.StatusCode,
				eris.Errorf("http 429 from %s", rawURL))
		case resp.StatusCode >= 400:
			return nil, resilience.NewProviderError(resilience.FailureUpstream, resp.StatusCode,
				eris.Errorf("http %d from %s", resp.StatusCode, rawURL))
		}

		return body, nil
	})
}

// GetJSON fetches the URL and decodes the response into out.
func (f *HTTPFetcher) GetJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	body, err := f.Get(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resilience.NewProviderError(resilience.FailureMalformed, 0,
			eris.Wrapf(err, "fetcher: decode response from %s", rawURL))
	}
	return nil
}
