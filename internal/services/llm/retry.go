package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryPolicy retries rate limits, server errors, timeouts and empty
// completions with doubling delays. Other failures surface at once.
type retryPolicy struct {
	attempts int
	base     time.Duration
	limit    time.Duration
	sleeper  func(time.Duration)
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: 3, base: time.Second, limit: 10 * time.Second}
}

func (p retryPolicy) max() int {
	return max(p.attempts, 1)
}

// next reports whether attempt should be followed by another and how long to
// wait first.
func (p retryPolicy) next(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= p.max() || ctx.Err() != nil || !isRetryable(err) {
		return 0, false
	}
	var status *httpStatusError
	if errors.As(err, &status) && status.RetryAfter > 0 {
		return p.clamp(status.RetryAfter), true
	}
	return p.backoff(attempt), true
}

// backoff waits base before the second attempt and doubles from there.
func (p retryPolicy) backoff(attempt int) time.Duration {
	if p.base <= 0 {
		return 0
	}
	delay := p.base
	for i := 1; i < attempt && (p.limit <= 0 || delay < p.limit); i++ {
		delay *= 2
	}
	return p.clamp(delay)
}

func (p retryPolicy) clamp(d time.Duration) time.Duration {
	if p.limit > 0 && d > p.limit {
		return p.limit
	}
	return max(d, 0)
}

func (p retryPolicy) wait(ctx context.Context, d time.Duration) error {
	if p.sleeper != nil || d <= 0 {
		if d > 0 {
			p.sleeper(d)
		}
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var empty *emptyContentError
	if errors.As(err, &empty) {
		return true
	}
	var status *httpStatusError
	if errors.As(err, &status) {
		code := status.StatusCode
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	// *url.Error implements net.Error.
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return max(time.Duration(seconds)*time.Second, 0)
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}
