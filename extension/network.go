//go:build sqlite_vtable

package extension

import (
	"github.com/asg017/sqlite-http/internal/cookies"
	"github.com/asg017/sqlite-http/internal/headers"
	httpclient "github.com/asg017/sqlite-http/internal/http"
	"github.com/asg017/sqlite-http/internal/httperr"
)

// requestArgs are the SQL arguments that describe one exchange.
type requestArgs struct {
	method  string
	url     string
	headers string
	body    []byte
	cookies string
}

// build validates the arguments and produces an immutable request.
func (a requestArgs) build() (*httpclient.Request, error) {
	if a.url == "" {
		return nil, httperr.Argumentf("url is required")
	}
	jar, err := cookies.Decode(a.cookies)
	if err != nil {
		return nil, err
	}
	return httpclient.NewRequest(a.method, a.url, headers.ParseCollection(a.headers), a.body, jar)
}

func (b *binding) exchange(a requestArgs) (*httpclient.Response, error) {
	req, err := a.build()
	if err != nil {
		return nil, err
	}
	return b.client.Do(req)
}

func getArgs(fn string, args []any) (requestArgs, error) {
	if err := arity(args, 1, 3, fn+"(url, headers, cookies)"); err != nil {
		return requestArgs{}, err
	}
	return requestArgs{
		method:  "GET",
		url:     optText(args, 0),
		headers: optText(args, 1),
		cookies: optText(args, 2),
	}, nil
}

func postArgs(fn string, args []any) (requestArgs, error) {
	if err := arity(args, 1, 4, fn+"(url, headers, body, cookies)"); err != nil {
		return requestArgs{}, err
	}
	return requestArgs{
		method:  "POST",
		url:     optText(args, 0),
		headers: optText(args, 1),
		body:    optBlob(args, 2),
		cookies: optText(args, 3),
	}, nil
}

func doArgs(fn string, args []any) (requestArgs, error) {
	if err := arity(args, 2, 5, fn+"(method, url, headers, body, cookies)"); err != nil {
		return requestArgs{}, err
	}
	return requestArgs{
		method:  optText(args, 0),
		url:     optText(args, 1),
		headers: optText(args, 2),
		body:    optBlob(args, 3),
		cookies: optText(args, 4),
	}, nil
}

func (b *binding) projectBody(a requestArgs, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	resp, err := b.exchange(a)
	if err != nil {
		return nil, err
	}
	if resp.Body == nil {
		return []byte{}, nil
	}
	return resp.Body, nil
}

func (b *binding) projectHeaders(a requestArgs, err error) (string, error) {
	if err != nil {
		return "", err
	}
	resp, err := b.exchange(a)
	if err != nil {
		return "", err
	}
	return resp.Header.String(), nil
}

func (b *binding) getBody(args ...any) ([]byte, error) {
	return b.projectBody(getArgs("http_get_body", args))
}

func (b *binding) getHeaders(args ...any) (string, error) {
	return b.projectHeaders(getArgs("http_get_headers", args))
}

func (b *binding) postBody(args ...any) ([]byte, error) {
	return b.projectBody(postArgs("http_post_body", args))
}

func (b *binding) postHeaders(args ...any) (string, error) {
	return b.projectHeaders(postArgs("http_post_headers", args))
}

func (b *binding) doBody(args ...any) ([]byte, error) {
	return b.projectBody(doArgs("http_do_body", args))
}

func (b *binding) doHeaders(args ...any) (string, error) {
	return b.projectHeaders(doArgs("http_do_headers", args))
}
