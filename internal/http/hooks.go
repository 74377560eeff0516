package http

// BeforeRequestHook is called with the prepared request before the rate
// limiter is consulted. If the hook returns an error, the exchange is aborted
// and the error is returned to the caller.
//
// The request is shared with the result row, so hooks must not modify it.
type BeforeRequestHook func(req *Request) error

// AfterResponseHook is called once the response body has been read.
// If the hook returns an error, it is ignored (the response is still returned).
//
// Use cases:
//   - Trace exchanges from the CLI
//   - Collect metrics
//
// This hook is NOT called if the exchange fails.
type AfterResponseHook func(resp *Response) error

// OnErrorHook is called when an exchange fails, after the error has been
// classified. If the hook returns an error, it is ignored (the classified error
// is still returned).
type OnErrorHook func(req *Request, err error) error
