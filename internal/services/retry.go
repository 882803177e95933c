package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/ytplay/internal/shared"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

// retryPolicy performs bounded GET attempts with exponential backoff.
type retryPolicy struct {
	maxRetries  int
	baseBackoff time.Duration
}

func (p retryPolicy) attempts() int {
	if p.maxRetries <= 0 {
		return defaultMaxRetries
	}
	return p.maxRetries
}

func (p retryPolicy) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	base := p.baseBackoff
	if base <= 0 {
		base = defaultBackoff
	}
	return base * time.Duration(1<<attempt)
}

// do runs send until it yields a non-retryable outcome or attempts are exhausted.
//
// Exhaustion wraps [shared.ErrTransientFetch]. before is invoked ahead of every attempt (rate limiting).
func (p retryPolicy) do(ctx context.Context, before func(context.Context) error, send func() (*http.Response, error)) (*http.Response, error) {
	maxAttempts := p.attempts()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("request canceled: %w", err)
		}

		if before != nil {
			if err := before(ctx); err != nil {
				return nil, fmt.Errorf("request canceled: %w", err)
			}
		}

		resp, err := send()
		retryAfter, retry := shouldRetry(resp, err)
		if !retry {
			return resp, err
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp.Body.Close()
		}

		if attempt == maxAttempts-1 {
			break
		}

		if err := sleepWithContext(ctx, p.backoff(attempt, retryAfter)); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: failed after %d attempts: %v", shared.ErrTransientFetch, maxAttempts, lastErr)
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, true
	}
	if resp == nil {
		return 0, false
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}

	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}

	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
