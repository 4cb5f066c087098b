package httpcap

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig tunes the transport-level retry/backoff a Client applies
// beneath a single node-level request.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64

	// Retryable decides whether resp/err warrants another attempt. The
	// default retries network errors and 5xx/429 responses only; 4xx
	// (other than 429) are treated as permanent.
	Retryable func(resp *http.Response, err error) bool
}

// DefaultRetryConfig matches the teacher's node-level defaults (3
// attempts, 100ms initial delay doubling up to 5s), now scoped to one
// HTTP round trip instead of one graph node.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Retryable:     defaultRetryable,
	}
}

func defaultRetryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

// withRetry executes attempt up to cfg.MaxAttempts times, applying
// exponential backoff with ±25% jitter between tries (ExponentialBackoffRetry,
// adapted here to operate on *http.Response instead of a graph node's
// return value).
func withRetry(ctx context.Context, cfg RetryConfig, attempt func() (*http.Response, error)) (*http.Response, error) {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = defaultRetryable
	}
	delay := cfg.InitialDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastResp *http.Response
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		resp, err := attempt()
		if err == nil && !retryable(resp, nil) {
			return resp, nil
		}
		lastResp, lastErr = resp, err
		if !retryable(resp, err) || i == maxAttempts-1 {
			return resp, err
		}

		wait := delay
		if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}
		//nolint:gosec // jitter does not need a CSPRNG
		jitter := time.Duration(float64(wait) * 0.25 * (2*rand.Float64() - 1))
		select {
		case <-time.After(wait + jitter):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		factor := cfg.BackoffFactor
		if factor <= 0 {
			factor = 2.0
		}
		delay = time.Duration(float64(delay) * factor)
		if cfg.MaxDelay > 0 {
			delay = time.Duration(math.Min(float64(delay), float64(cfg.MaxDelay)))
		}
	}
	return lastResp, lastErr
}
