package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrMaxRetriesExceeded = errors.New("max retry attempts exceeded")

// Permanent marks an error as non-retryable. Wrapping a definitive failure
// (a 4xx response, a validation error) in Permanent makes Retry surface it
// immediately instead of burning the remaining attempts.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// NewPermanent wraps err so it is never retried.
func NewPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

// RetryConfig configures retry behavior. Backoff grows linearly: the wait
// before attempt n+1 is BaseDelay * n.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig provides the client defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Retry executes fn up to MaxAttempts times, sleeping BaseDelay*attempt
// between attempts. A nil return stops immediately; an error wrapped in
// Permanent stops immediately and is returned unwrapped of the marker.
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(err, &perm) {
			return perm.Err
		}
		lastErr = err

		if attempt == config.MaxAttempts {
			break
		}

		delay := time.Duration(attempt) * config.BaseDelay

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded for %v: %w", config.MaxAttempts, lastErr, ErrMaxRetriesExceeded)
}
