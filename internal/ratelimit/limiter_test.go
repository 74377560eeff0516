package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asg017/sqlite-http/internal/httperr"
)

// tolerance absorbs timer granularity on busy CI machines.
const tolerance = 3 * time.Millisecond

func waitStarts(t *testing.T, l *Limiter, n int) []time.Time {
	t.Helper()
	starts := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		require.NoError(t, l.Wait(context.Background()))
		starts = append(starts, time.Now())
	}
	return starts
}

func TestLimiter_SpacesConsecutiveCalls(t *testing.T) {
	l := New(20) // 50ms apart

	starts := waitStarts(t, l, 5)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, 50*time.Millisecond-tolerance, "gap %d", i)
	}
}

func TestLimiter_FirstCallIsImmediate(t *testing.T) {
	l := New(1)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestLimiter_NoBurstCredit(t *testing.T) {
	l := New(10) // 100ms apart

	require.NoError(t, l.Wait(context.Background()))
	time.Sleep(250 * time.Millisecond)

	// The idle period covers one call, not two.
	starts := waitStarts(t, l, 2)
	assert.GreaterOrEqual(t, starts[1].Sub(starts[0]), 100*time.Millisecond-tolerance)
}

func TestLimiter_SetRate(t *testing.T) {
	l := New(0)
	assert.Equal(t, Unlimited, l.Rate())
	assert.Equal(t, time.Duration(0), l.Interval())

	got, err := l.SetRate(4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)
	assert.Equal(t, 250*time.Millisecond, l.Interval())

	got, err = l.SetRate(Unlimited * 2)
	require.NoError(t, err)
	assert.Equal(t, Unlimited, got)

	_, err = l.SetRate(0)
	assert.ErrorIs(t, err, httperr.ErrArgument)
	_, err = l.SetRate(-5)
	assert.ErrorIs(t, err, httperr.ErrArgument)
	assert.Equal(t, Unlimited, l.Rate(), "failed SetRate leaves the ceiling alone")
}

func TestLimiter_UnlimitedDoesNotWait(t *testing.T) {
	l := New(Unlimited)

	start := time.Now()
	waitStarts(t, l, 50)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l := New(1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
}
