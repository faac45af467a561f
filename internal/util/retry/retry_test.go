package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_Success(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	var hooks []int
	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("throttled")
		}
		return nil
	},
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) { hooks = append(hooks, attempt) }),
	)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, hooks)
}

func TestDo_MaxRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	cause := errors.New("persistent")
	err := Do(context.Background(), func() error {
		attempts++
		return cause
	}, WithMaxRetries(2), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, attempts, "one attempt plus two retries")
}

func TestDo_FatalIsReturnedUnwrapped(t *testing.T) {
	t.Parallel()

	attempts := 0
	cause := errors.New("unauthorized")
	err := Do(context.Background(), func() error {
		attempts++
		return Fatal(cause)
	}, WithInitialDelay(time.Millisecond))

	assert.Same(t, cause, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, func() error {
		attempts++
		cancel()
		return errors.New("temporary")
	}, WithInitialDelay(time.Hour))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDo_DelayIsCapped(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	_ = Do(context.Background(), func() error {
		return errors.New("busy")
	},
		WithMaxRetries(4),
		WithInitialDelay(time.Millisecond),
		WithMultiplier(3),
		WithMaxDelay(5*time.Millisecond),
		WithOnRetry(func(_ int, _ error, d time.Duration) { delays = append(delays, d) }),
	)

	assert.Equal(t, []time.Duration{
		time.Millisecond, 3 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond,
	}, delays)
}

func TestFatal(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Fatal(nil))

	base := errors.New("x")
	var fatal *FatalError
	require.ErrorAs(t, Fatal(base), &fatal)
	assert.ErrorIs(t, Fatal(base), base)
}
