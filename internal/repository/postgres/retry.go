package postgres

import (
	"context"
	"strings"
	"time"
)

const maxAttempts = 3

// baseBackoff is a var so tests can shrink the delay.
var baseBackoff = time.Second

// retryableFragments are matched against the error text to decide whether a
// failure is transient. Connection resets, DNS failures, and timeouts retry;
// everything else (validation, auth, not-found) surfaces immediately.
var retryableFragments = []string{
	"connection reset",
	"connection refused",
	"no such host",
	"timeout",
	"timed out",
	"network is unreachable",
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range retryableFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// withRetry runs op up to maxAttempts times with exponential backoff, but
// only while the failure classifies as transient. A non-retryable error is
// returned after the first attempt.
func withRetry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	var (
		out     T
		lastErr error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, lastErr = op()
		if lastErr == nil {
			return out, nil
		}
		if !isRetryable(lastErr) || attempt == maxAttempts {
			break
		}
		backoff := baseBackoff * time.Duration(1<<(attempt-1))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
	return out, lastErr
}
