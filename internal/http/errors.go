package http

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/asg017/sqlite-http/internal/httperr"
)

// classify maps a transport failure onto the error taxonomy.
//
// Classification order:
//   - deadline exceeded or a net.Error reporting Timeout → Timeout
//   - dial, DNS, reset or refused connection, EOF before a response → Connection
//   - anything else the transport rejects (malformed status line, bad headers,
//     truncated body, redirect loops) → Protocol
func classify(req *Request, err error, readingBody bool) error {
	var typed *httperr.Error
	if errors.As(err, &typed) {
		return err
	}

	op := req.String()
	if errors.Is(err, context.DeadlineExceeded) {
		return httperr.New(httperr.Timeout, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return httperr.New(httperr.Timeout, op, err)
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return httperr.New(httperr.Connection, op, err)
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return httperr.New(httperr.Connection, op, err)
	case !readingBody && errors.Is(err, io.EOF):
		return httperr.New(httperr.Connection, op, err)
	}

	return httperr.New(httperr.Protocol, op, err)
}
