package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/asg017/sqlite-http/internal/httperr"
)

// Unlimited is the requests-per-second value at and above which no spacing
// is enforced.
const Unlimited int64 = 1_000_000

// Limiter spaces consecutive calls at least 1/rps apart, measured from the
// start of the previous call. It holds a single token: idle time never turns
// into burst credit beyond the very next call.
type Limiter struct {
	mu  sync.Mutex
	rps int64
	lim *rate.Limiter
}

// New creates a limiter for rps requests per second. rps <= 0 or >= Unlimited
// disables spacing.
func New(rps int64) *Limiter {
	if rps <= 0 || rps >= Unlimited {
		return &Limiter{rps: Unlimited, lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{rps: rps, lim: rate.NewLimiter(rate.Limit(rps), 1)}
}

// SetRate replaces the ceiling and returns it.
func (l *Limiter) SetRate(rps int64) (int64, error) {
	if rps <= 0 {
		return 0, httperr.Argumentf("rate limit must be a positive number of requests per second, got %d", rps)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if rps >= Unlimited {
		l.rps = Unlimited
		l.lim.SetLimit(rate.Inf)
		return l.rps, nil
	}
	l.rps = rps
	l.lim.SetLimit(rate.Limit(rps))
	return l.rps, nil
}

// Rate returns the current ceiling in requests per second.
func (l *Limiter) Rate() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rps
}

// Interval returns the minimum spacing between call starts.
func (l *Limiter) Interval() time.Duration {
	rps := l.Rate()
	if rps >= Unlimited {
		return 0
	}
	return time.Second / time.Duration(rps)
}

// Wait blocks until the next call may start and records that start.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.lim.Wait(ctx)
}
