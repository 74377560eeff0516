//go:build sqlite_vtable

package extension

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/asg017/sqlite-http/internal/cookies"
	"github.com/asg017/sqlite-http/internal/headers"
	httpclient "github.com/asg017/sqlite-http/internal/http"
	"github.com/asg017/sqlite-http/internal/settings"
	"github.com/asg017/sqlite-http/internal/version"
)

// binding is the state one registration closes over. Under process scope every
// connection shares a single binding.
type binding struct {
	settings *settings.Settings
	client   *httpclient.Client
}

type function struct {
	name    string
	impl    any
	pure    bool
	network bool
}

type module struct {
	name    string
	module  sqlite3.Module
	network bool
}

func (b *binding) functions() []function {
	return []function{
		{name: "http_version", impl: httpVersion, pure: true},
		{name: "http_debug", impl: httpDebug, pure: true},
		{name: "http_headers", impl: httpHeaders, pure: true},
		{name: "http_headers_get", impl: httpHeadersGet, pure: true},
		{name: "http_headers_has", impl: httpHeadersHas, pure: true},
		{name: "http_headers_all", impl: httpHeadersAll, pure: true},
		{name: "http_headers_date", impl: httpHeadersDate, pure: true},
		{name: "http_cookies", impl: httpCookies, pure: true},
		{name: "http_rate_limit", impl: b.rateLimit},
		{name: "http_timeout_set", impl: b.timeoutSet},

		{name: "http_post_form_urlencoded", impl: httpPostFormURLEncoded, pure: true, network: true},
		{name: "http_get_body", impl: b.getBody, network: true},
		{name: "http_get_headers", impl: b.getHeaders, network: true},
		{name: "http_post_body", impl: b.postBody, network: true},
		{name: "http_post_headers", impl: b.postHeaders, network: true},
		{name: "http_do_body", impl: b.doBody, network: true},
		{name: "http_do_headers", impl: b.doHeaders, network: true},
	}
}

func (b *binding) modules() []module {
	return []module{
		{name: "http_headers_each", module: &headersEachModule{}},
		{name: "http_get", module: &requestModule{kind: getTable, b: b}, network: true},
		{name: "http_post", module: &requestModule{kind: postTable, b: b}, network: true},
		{name: "http_do", module: &requestModule{kind: doTable, b: b}, network: true},
	}
}

func httpVersion() string { return version.Version() }

func httpDebug() string { return version.Debug() }

// http_headers(k1, v1, ...)
func httpHeaders(args ...any) (string, error) {
	kv, err := pairs("http_headers", args)
	if err != nil {
		return "", err
	}
	c, err := headers.Build(kv...)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// http_headers_get(headers, key) returns NULL when the key is missing.
func httpHeadersGet(raw, key any) (any, error) {
	h, ok := asText(raw)
	if !ok {
		return nil, nil
	}
	k, ok := asText(key)
	if !ok {
		return nil, nil
	}
	if v, found := headers.ParseCollection(h).Get(k); found {
		return v, nil
	}
	return nil, nil
}

func httpHeadersHas(raw, key any) (int64, error) {
	h, _ := asText(raw)
	k, ok := asText(key)
	if !ok {
		return 0, nil
	}
	if headers.ParseCollection(h).Has(k) {
		return 1, nil
	}
	return 0, nil
}

// http_headers_all(headers, key) returns every matching value as a JSON array.
func httpHeadersAll(raw, key any) (string, error) {
	h, _ := asText(raw)
	k, _ := asText(key)
	values := headers.ParseCollection(h).Values(k)
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func httpHeadersDate(v any) any {
	s, ok := asText(v)
	if !ok {
		return nil
	}
	if d, ok := headers.ParseDate(s); ok {
		return d
	}
	return nil
}

// http_cookies(name1, value1, ...)
func httpCookies(args ...any) (string, error) {
	kv, err := pairs("http_cookies", args)
	if err != nil {
		return "", err
	}
	return cookies.Encode(kv...)
}

// http_post_form_urlencoded(name1, value1, ...), last duplicate wins.
func httpPostFormURLEncoded(args ...any) (string, error) {
	kv, err := pairs("http_post_form_urlencoded", args)
	if err != nil {
		return "", err
	}
	data := url.Values{}
	for i := 0; i < len(kv); i += 2 {
		data.Set(kv[i], kv[i+1])
	}
	return data.Encode(), nil
}

// http_rate_limit(rps) returns the new ceiling.
func (b *binding) rateLimit(v any) (int64, error) {
	n, err := asInt("http_rate_limit", v)
	if err != nil {
		return 0, err
	}
	return b.settings.SetRate(n)
}

// http_timeout_set(ms | 'duration') returns the new timeout in milliseconds.
func (b *binding) timeoutSet(v any) (int64, error) {
	d, err := settings.ParseTimeout(v)
	if err != nil {
		return 0, err
	}
	d, err = b.settings.SetTimeout(d)
	if err != nil {
		return 0, err
	}
	return int64(d / time.Millisecond), nil
}
