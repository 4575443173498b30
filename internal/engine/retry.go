package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RetryPolicy controls how transient API failures are retried.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // doubled after each failed attempt
}

// DefaultRetryPolicy matches the platform guidance: four attempts with
// exponential backoff starting at one second.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 4,
	BaseDelay:   time.Second,
}

// retryableError marks an error as worth retrying. Transport failures and
// HTTP 429/5xx responses are wrapped in it; all other errors fail fast.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// MarkRetryable wraps err as retryable.
func MarkRetryable(err error) error {
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked retryable.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// RetryableStatus reports whether an HTTP status code warrants a retry.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// WithRetry runs fn up to p.MaxAttempts times, sleeping BaseDelay, 2*BaseDelay,
// 4*BaseDelay, ... between attempts. Only errors marked retryable are retried;
// context cancellation aborts immediately.
func WithRetry(ctx context.Context, p RetryPolicy, fn func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	delay := p.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt >= p.MaxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
