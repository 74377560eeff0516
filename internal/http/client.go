package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptrace"

	"go.uber.org/zap"

	"github.com/asg017/sqlite-http/internal/cookies"
	"github.com/asg017/sqlite-http/internal/headers"
	"github.com/asg017/sqlite-http/internal/settings"
)

// Client performs exchanges under a shared rate limit and timeout.
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new client with the given configuration.
// Default values are applied to zero-valued config fields.
func NewClient(cfg Config) *Client {
	cfg.setDefaults()

	// Configure transport with connection pooling
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		config:     cfg,
	}
}

// Settings returns the rate limit and timeout state this client consults.
func (c *Client) Settings() *settings.Settings {
	return c.config.Settings
}

// Do performs one exchange and returns the complete response.
//
// Order of operations:
//  1. BeforeRequest hook
//  2. Wait for the rate limiter
//  3. Send the request and read the whole body, bounded by the current timeout
//  4. AfterResponse (on success) OR OnError (on failure)
//
// Failures are never retried. On failure no partial response is returned.
func (c *Client) Do(req *Request) (*Response, error) {
	if c.config.BeforeRequest != nil {
		if err := c.config.BeforeRequest(req); err != nil {
			return nil, err
		}
	}

	if err := c.config.Settings.Throttle(context.Background()); err != nil {
		return nil, err
	}

	timeout := c.config.Settings.Timeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rec := &recorder{}
	ctx = httptrace.WithClientTrace(ctx, rec.trace())

	httpReq, err := req.httpRequest(ctx, c.config.UserAgent)
	if err != nil {
		return nil, c.fail(req, err)
	}

	rec.mark(&rec.timings.Start)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.fail(req, classify(req, err, false))
	}
	defer resp.Body.Close()

	rec.mark(&rec.timings.BodyStart)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(req, classify(req, err, true))
	}
	rec.mark(&rec.timings.BodyEnd)

	timings, remoteAddr := rec.snapshot()
	out := &Response{
		Request:    req,
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Header:     headers.FromHTTP(resp.Header),
		Body:       body,
		Cookies:    cookies.EncodeResponse(resp.Cookies()),
		Timings:    timings,
		RemoteAddr: remoteAddr,
	}

	c.config.Logger.Debug("http exchange",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("status", out.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", timings.BodyEnd.Sub(timings.Start)),
	)

	if c.config.AfterResponse != nil {
		c.config.AfterResponse(out)
	}
	return out, nil
}

func (c *Client) fail(req *Request, err error) error {
	c.config.Logger.Warn("http exchange failed",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Duration("timeout", c.config.Settings.Timeout()),
		zap.Error(err),
	)
	if c.config.OnError != nil {
		c.config.OnError(req, err)
	}
	return err
}
