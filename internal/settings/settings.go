// Package settings holds the mutable state every network call consults: the
// request rate ceiling and the per-exchange timeout.
package settings

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/asg017/sqlite-http/internal/httperr"
	"github.com/asg017/sqlite-http/internal/ratelimit"
)

// DefaultTimeout applies until http_timeout_set is called.
const DefaultTimeout = 5 * time.Second

// Scope decides which connections share a Settings value.
type Scope int

const (
	// ScopeProcess shares one Settings across every connection.
	ScopeProcess Scope = iota
	// ScopeConnection gives each connection its own Settings.
	ScopeConnection
)

func (s Scope) String() string {
	switch s {
	case ScopeProcess:
		return "process"
	case ScopeConnection:
		return "connection"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope accepts "process" or "connection".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "process":
		return ScopeProcess, nil
	case "connection":
		return ScopeConnection, nil
	default:
		return 0, fmt.Errorf("unknown settings scope %q", s)
	}
}

// Settings is safe for concurrent use.
type Settings struct {
	limiter *ratelimit.Limiter

	mu      sync.RWMutex
	timeout time.Duration
}

// New returns settings with the given timeout and rate. Zero values select
// DefaultTimeout and no rate limit.
func New(timeout time.Duration, rps int64) *Settings {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Settings{
		limiter: ratelimit.New(rps),
		timeout: timeout,
	}
}

// Timeout returns the current per-exchange timeout.
func (s *Settings) Timeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeout
}

// SetTimeout replaces the per-exchange timeout and returns it.
func (s *Settings) SetTimeout(d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, httperr.Argumentf("timeout must be positive, got %v", d)
	}
	s.mu.Lock()
	s.timeout = d
	s.mu.Unlock()
	return d, nil
}

// Rate returns the request ceiling in requests per second.
func (s *Settings) Rate() int64 { return s.limiter.Rate() }

// SetRate replaces the request ceiling and returns it.
func (s *Settings) SetRate(rps int64) (int64, error) { return s.limiter.SetRate(rps) }

// Throttle blocks until the next exchange may start.
func (s *Settings) Throttle(ctx context.Context) error { return s.limiter.Wait(ctx) }

// maxTimeoutMS is the largest millisecond count a time.Duration can hold.
const maxTimeoutMS = math.MaxInt64 / int64(time.Millisecond)

// ParseTimeout reads a timeout given either as integer milliseconds or as a
// Go duration string such as "10s". Values below one millisecond, or too large
// for a time.Duration, are rejected.
func ParseTimeout(v any) (time.Duration, error) {
	switch t := v.(type) {
	case int64:
		return fromMillis(t)
	case int:
		return fromMillis(int64(t))
	case float64:
		if math.IsNaN(t) || t < 1 || t > float64(maxTimeoutMS) {
			return 0, httperr.Argumentf("timeout must be between 1 and %d milliseconds, got %v", maxTimeoutMS, t)
		}
		return time.Duration(t * float64(time.Millisecond)), nil
	case []byte:
		return ParseTimeout(string(t))
	case string:
		s := strings.TrimSpace(t)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromMillis(ms)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, httperr.Argumentf("timeout must be milliseconds or a duration like \"10s\", got %q", t)
		}
		if d < time.Millisecond {
			return 0, httperr.Argumentf("timeout must be at least 1ms, got %v", d)
		}
		return d, nil
	case nil:
		return 0, httperr.Argumentf("timeout must not be NULL")
	default:
		return 0, httperr.Argumentf("unsupported timeout value %v", v)
	}
}

func fromMillis(ms int64) (time.Duration, error) {
	if ms < 1 || ms > maxTimeoutMS {
		return 0, httperr.Argumentf("timeout must be between 1 and %d milliseconds, got %d", maxTimeoutMS, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
