package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoVal_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetryConfig(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewProviderError(FailureNetwork, 0, errors.New("conn reset"))
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestDoVal_PermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetryConfig(5), func(context.Context) (int, error) {
		calls++
		return 0, NewProviderError(FailureMalformed, 0, errors.New("bad json"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	boom := NewProviderError(FailureRateLimit, 429, errors.New("429"))
	_, err := DoVal(context.Background(), fastRetryConfig(3), func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, IsRateLimit(err))
}

func TestDoVal_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := DoVal(ctx, fastRetryConfig(10), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewProviderError(FailureNetwork, 0, errors.New("down"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_OnRetryCallback(t *testing.T) {
	cfg := fastRetryConfig(3)
	var attempts []int
	cfg.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}
	_, _ = DoVal(context.Background(), cfg, func(context.Context) (int, error) {
		return 0, NewProviderError(FailureNetwork, 0, errors.New("down"))
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_WrapsDoVal(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetryConfig(2), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestComputeBackoff_Growth(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
	}
	assert.Equal(t, 100*time.Millisecond, computeBackoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, computeBackoff(1, cfg))
	assert.Equal(t, 400*time.Millisecond, computeBackoff(2, cfg))
	// Capped by MaxBackoff.
	assert.Equal(t, time.Second, computeBackoff(10, cfg))
}

func TestIsTransient_Classification(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(NewProviderError(FailureRateLimit, 429, errors.New("x"))))
	assert.True(t, IsTransient(NewProviderError(FailureNetwork, 0, errors.New("x"))))
	assert.True(t, IsTransient(NewProviderError(FailureUpstream, 503, errors.New("x"))))
	assert.False(t, IsTransient(NewProviderError(FailureUpstream, 404, errors.New("x"))))
	assert.False(t, IsTransient(NewProviderError(FailureMalformed, 0, errors.New("x"))))
	assert.True(t, IsTransient(errors.New("read tcp: connection reset by peer")))
	assert.False(t, IsTransient(errors.New("invalid credentials")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := NewProviderError(FailureUpstream, 500, inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "upstream_error")
	assert.Contains(t, err.Error(), "root cause")
}
