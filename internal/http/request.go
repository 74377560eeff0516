package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/asg017/sqlite-http/internal/cookies"
	"github.com/asg017/sqlite-http/internal/headers"
	"github.com/asg017/sqlite-http/internal/httperr"
)

// Request describes one exchange. It is not modified after NewRequest.
type Request struct {
	Method  string
	URL     string
	Header  headers.Collection
	Body    []byte
	Cookies map[string]string
}

// NewRequest validates the request parts, header fields included, so nothing
// malformed reaches the throttle or the transport. Cookies are appended to the header
// collection as a single Cookie entry so the echoed headers match what is
// sent on the wire.
func NewRequest(method, rawURL string, header headers.Collection, body []byte, cookieJar map[string]string) (*Request, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return nil, httperr.Argumentf("request method is required")
	}
	if strings.ContainsAny(method, " \t\r\n") {
		return nil, httperr.Argumentf("invalid request method %q", method)
	}

	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, httperr.New(httperr.InvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, httperr.New(httperr.InvalidURL, rawURL, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, httperr.New(httperr.InvalidURL, rawURL, fmt.Errorf("missing host"))
	}

	h := header.Clone()
	if len(cookieJar) > 0 {
		h.Add("Cookie", cookies.Header(cookieJar))
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	return &Request{
		Method:  method,
		URL:     rawURL,
		Header:  h,
		Body:    body,
		Cookies: cookieJar,
	}, nil
}

// CookiesJSON returns the request cookies as a JSON object.
func (r *Request) CookiesJSON() string {
	s, err := cookies.EncodeMap(r.Cookies)
	if err != nil {
		return "{}"
	}
	return s
}

// String returns "METHOD URL", used in error messages and logs.
func (r *Request) String() string {
	return r.Method + " " + r.URL
}

func (r *Request) httpRequest(ctx context.Context, userAgent string) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, httperr.New(httperr.Argument, r.String(), err)
	}

	r.Header.Apply(req)
	if userAgent != "" && !r.Header.Has("User-Agent") {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}
