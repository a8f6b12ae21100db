package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPoller(t *testing.T, maxAttempts int) *Poller {
	t.Helper()
	p, err := New(Policy{Interval: time.Millisecond, MaxAttempts: maxAttempts}, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestPolicyValidate(t *testing.T) {
	assert.Error(t, Policy{Interval: 0, MaxAttempts: 5}.Validate())
	assert.Error(t, Policy{Interval: time.Second, MaxAttempts: 0}.Validate())
	assert.NoError(t, Policy{Interval: time.Second, MaxAttempts: 1}.Validate())
}

func TestUntilDoneOnFirstAttempt(t *testing.T) {
	calls := 0
	err := newTestPoller(t, 30).Until(context.Background(), "test", func(ctx context.Context, attempt int) (Outcome, error) {
		calls++
		return Done, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestUntilDoneOnLaterAttempt(t *testing.T) {
	calls := 0
	err := newTestPoller(t, 30).Until(context.Background(), "test", func(ctx context.Context, attempt int) (Outcome, error) {
		calls++
		if calls < 15 {
			return Pending, nil
		}
		return Done, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 15, calls)
}

func TestUntilExhaustsExactlyMaxAttempts(t *testing.T) {
	calls := 0
	err := newTestPoller(t, 30).Until(context.Background(), "test", func(ctx context.Context, attempt int) (Outcome, error) {
		calls++
		return Pending, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxAttemptsExceeded)
	assert.True(t, IsMaxAttempts(err))
	// The ceiling is exact: never a 31st attempt
	assert.Equal(t, 30, calls)
}

func TestUntilSucceedsOnFinalAttempt(t *testing.T) {
	calls := 0
	err := newTestPoller(t, 30).Until(context.Background(), "test", func(ctx context.Context, attempt int) (Outcome, error) {
		calls++
		if calls < 30 {
			return Pending, nil
		}
		return Done, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 30, calls)
}

func TestUntilFailedAbortsImmediately(t *testing.T) {
	boom := errors.New("terminal failure")
	calls := 0
	err := newTestPoller(t, 30).Until(context.Background(), "test", func(ctx context.Context, attempt int) (Outcome, error) {
		calls++
		if calls == 3 {
			return Failed, boom
		}
		return Pending, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsMaxAttempts(err))
	assert.Equal(t, 3, calls)
}

func TestUntilHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := newTestPoller(t, 30).Until(ctx, "test", func(ctx context.Context, attempt int) (Outcome, error) {
		calls++
		cancel()
		return Pending, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestUntilAttemptNumbersAreSequential(t *testing.T) {
	var seen []int
	err := newTestPoller(t, 3).Until(context.Background(), "test", func(ctx context.Context, attempt int) (Outcome, error) {
		seen = append(seen, attempt)
		return Pending, nil
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}
