package embed

import (
	"context"
	"errors"
	"strconv"
	"time"

	recallerrors "github.com/notewell/recall/internal/errors"
)

// RetryConfig configures backoff for transient embedding failures.
// Retry absorbs network blips and rate limits; an exhausted retry budget
// still surfaces the provider error to the caller, so a rebuild keeps
// its all-or-nothing abort semantics.
type RetryConfig struct {
	MaxRetries   int           // Retry attempts beyond the initial one
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Cap on the backoff delay
	Multiplier   float64       // Exponential backoff multiplier
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     16 * time.Second,
		Multiplier:   2.0,
	}
}

// withRetry executes fn, retrying retryable failures with exponential
// backoff. A Retry-After detail on a rate-limit error overrides the
// computed delay. Context cancellation aborts immediately.
func withRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return recallerrors.ProviderError("embedding request cancelled", ctx.Err())
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !recallerrors.IsRetryable(err) || attempt >= cfg.MaxRetries {
			break
		}

		wait := delay
		if ra := retryAfter(err); ra > 0 {
			wait = ra
		}

		select {
		case <-ctx.Done():
			return recallerrors.ProviderError("embedding request cancelled", ctx.Err())
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}

// retryAfter extracts a server-provided Retry-After delay, if present.
func retryAfter(err error) time.Duration {
	var re *recallerrors.RecallError
	if !errors.As(err, &re) {
		return 0
	}
	secs, convErr := strconv.Atoi(re.Details["retry_after"])
	if convErr != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
