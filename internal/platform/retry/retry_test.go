package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SadnessofAtlantis/kibana/internal/platform/retry"
)

var fastPolicy = retry.Policy{
	MaxAttempts:    3,
	InitialBackoff: 1 * time.Millisecond,
}

func alwaysStop(error) retry.Action { return retry.Stop }

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	val, err := retry.Do(context.Background(), fastPolicy, retry.Always, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 1, calls)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	val, err := retry.Do(context.Background(), fastPolicy, retry.Always, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection refused")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("password authentication failed")
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, alwaysStop, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, permanent
	})

	var permErr *retry.PermanentError
	require.ErrorAs(t, err, &permErr)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustedRetries(t *testing.T) {
	underlying := errors.New("connection refused")
	calls := 0
	_, err := retry.Do(context.Background(), fastPolicy, retry.Always, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, underlying
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, fastPolicy.MaxAttempts, calls)
}

func TestDo_BackoffDoublesUpToCap(t *testing.T) {
	var observed []time.Duration
	p := retry.Policy{
		MaxAttempts:    5,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     3 * time.Millisecond,
		OnRetry: func(_ int, _ error, backoff time.Duration) {
			observed = append(observed, backoff)
		},
	}

	_, _ = retry.Do(context.Background(), p, retry.Always, func(context.Context) (struct{}, error) {
		return struct{}{}, errors.New("down")
	})

	assert.Equal(t, []time.Duration{
		1 * time.Millisecond,
		2 * time.Millisecond,
		3 * time.Millisecond,
		3 * time.Millisecond,
	}, observed)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{MaxAttempts: 3, InitialBackoff: time.Hour}

	calls := 0
	_, err := retry.Do(ctx, p, retry.Always, func(context.Context) (struct{}, error) {
		calls++
		cancel()
		return struct{}{}, errors.New("down")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_RejectsZeroAttempts(t *testing.T) {
	_, err := retry.Do(context.Background(), retry.Policy{}, retry.Always, func(context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	require.Error(t, err)
}
