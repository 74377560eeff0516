package http

import (
	"time"

	"go.uber.org/zap"

	"github.com/asg017/sqlite-http/internal/settings"
)

// Config configures the request executor.
type Config struct {
	// Settings supplies the rate limit and timeout consulted on every exchange.
	// A private Settings with defaults is created when nil.
	Settings *settings.Settings

	// UserAgent is sent when the request carries no User-Agent header.
	// Empty keeps net/http's default.
	UserAgent string

	// Connection pool configuration
	MaxIdleConns        int           // Maximum idle connections across all hosts (default: 100)
	MaxIdleConnsPerHost int           // Maximum idle connections per host (default: 10)
	IdleConnTimeout     time.Duration // How long idle connections stay open (default: 90s)

	// Hooks for request/response interception
	BeforeRequest BeforeRequestHook // Called before throttling and sending
	AfterResponse AfterResponseHook // Called after each complete response
	OnError       OnErrorHook       // Called when an exchange fails

	// Logger receives one debug entry per exchange (default: no-op).
	Logger *zap.Logger
}

// setDefaults fills in default values for zero-valued fields.
func (c *Config) setDefaults() {
	if c.Settings == nil {
		c.Settings = settings.New(0, 0)
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}
