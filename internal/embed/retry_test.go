package embed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recallerrors "github.com/notewell/recall/internal/errors"
)

func fastRetry(max int) RetryConfig {
	return RetryConfig{
		MaxRetries:   max,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry(3), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesRetryableUntilSuccess(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry(3), func() error {
		calls++
		if calls < 3 {
			return recallerrors.New(recallerrors.ErrCodeProviderRequest, "transient", nil)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustionReturnsLastError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry(2), func() error {
		calls++
		return recallerrors.New(recallerrors.ErrCodeProviderRequest, "still down", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, recallerrors.IsCode(err, recallerrors.ErrCodeProviderRequest))
}

func TestWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry(3), func() error {
		calls++
		return recallerrors.New(recallerrors.ErrCodeProviderResponse, "malformed", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ContextCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, fastRetry(3), func() error {
		calls++
		return recallerrors.New(recallerrors.ErrCodeProviderRequest, "transient", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 0, calls)
	assert.True(t, recallerrors.IsCategory(err, recallerrors.CategoryProvider))
}

func TestRetryAfter_ReadsDetail(t *testing.T) {
	err := recallerrors.New(recallerrors.ErrCodeProviderRateLimit, "slow down", nil).
		WithDetail("retry_after", "7")
	assert.Equal(t, 7*time.Second, retryAfter(err))
}

func TestRetryAfter_IgnoresMissingOrBadDetail(t *testing.T) {
	assert.Zero(t, retryAfter(recallerrors.New(recallerrors.ErrCodeProviderRateLimit, "x", nil)))
	bad := recallerrors.New(recallerrors.ErrCodeProviderRateLimit, "x", nil).
		WithDetail("retry_after", "soon")
	assert.Zero(t, retryAfter(bad))
}
