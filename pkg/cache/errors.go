package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNetwork marks backend failures that are worth retrying: dial errors,
// timeouts and dropped connections.
var ErrNetwork = errors.New("cache backend unreachable")

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

// Retryable wraps err so that RetryWithBackoff will try again. A nil error
// stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: fmt.Errorf("%w: %w", ErrNetwork, err)}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or anything it wraps, is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryAttempts and retryDelay bound RetryWithBackoff. Cache calls sit on the
// request path, so the budget is small.
var (
	retryAttempts = 3
	retryDelay    = 50 * time.Millisecond
)

// RetryWithBackoff calls fn until it succeeds, returns a non-retryable error,
// or runs out of attempts. The delay doubles after each failure.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryDelay
	var err error
	for i := range retryAttempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == retryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}
