package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/shared"
)

func TestRetryPolicy(t *testing.T) {
	tests := []struct {
		name             string
		statuses         []int
		maxRetries       int
		expectedStatus   int
		expectedAttempts int
		expectErr        bool
	}{
		{
			name:             "retries on 503 then succeeds",
			statuses:         []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK},
			maxRetries:       3,
			expectedStatus:   http.StatusOK,
			expectedAttempts: 3,
		},
		{
			name:             "exhausts retries on 429",
			statuses:         []int{http.StatusTooManyRequests},
			maxRetries:       2,
			expectedAttempts: 2,
			expectErr:        true,
		},
		{
			name:             "does not retry 404",
			statuses:         []int{http.StatusNotFound},
			maxRetries:       3,
			expectedStatus:   http.StatusNotFound,
			expectedAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				status := tt.statuses[len(tt.statuses)-1]
				if attempts <= len(tt.statuses) {
					status = tt.statuses[attempts-1]
				}
				w.WriteHeader(status)
			}))
			defer ts.Close()

			policy := retryPolicy{maxRetries: tt.maxRetries, baseBackoff: time.Millisecond}
			resp, err := policy.do(context.Background(), nil, func() (*http.Response, error) {
				return http.Get(ts.URL)
			})
			if (err != nil) != tt.expectErr {
				t.Fatalf("expected error: %v, got: %v", tt.expectErr, err)
			}
			if err != nil && !errors.Is(err, shared.ErrTransientFetch) {
				t.Errorf("expected ErrTransientFetch, got %v", err)
			}
			if resp != nil {
				defer resp.Body.Close()
				if resp.StatusCode != tt.expectedStatus {
					t.Fatalf("status: got %d, want %d", resp.StatusCode, tt.expectedStatus)
				}
			}
			if attempts != tt.expectedAttempts {
				t.Fatalf("attempts: got %d, want %d", attempts, tt.expectedAttempts)
			}
		})
	}

	t.Run("backoff doubles", func(t *testing.T) {
		p := retryPolicy{baseBackoff: 10 * time.Millisecond}
		if got := p.backoff(2, 0); got != 40*time.Millisecond {
			t.Errorf("expected 40ms, got %v", got)
		}
		if got := p.backoff(2, time.Second); got != time.Second {
			t.Errorf("expected Retry-After to win, got %v", got)
		}
	})

	t.Run("parseRetryAfter seconds", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Retry-After": {"2"}}}
		if got := parseRetryAfter(resp); got != 2*time.Second {
			t.Errorf("expected 2s, got %v", got)
		}
	})

	t.Run("sleepWithContext cancels", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := sleepWithContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
