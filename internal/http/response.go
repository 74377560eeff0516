package http

import (
	"crypto/tls"
	"encoding/json"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/asg017/sqlite-http/internal/headers"
)

// Response is the complete result of one exchange. It is only built once
// the body has been read in full.
type Response struct {
	Request    *Request
	Status     string
	StatusCode int
	Header     headers.Collection
	Body       []byte
	Cookies    string // JSON array of raw Set-Cookie lines
	Timings    Timings
	RemoteAddr string
	Meta       json.RawMessage // nil renders as SQL NULL
}

// Timings records when each stage of an exchange happened. Zero values mean
// the stage did not occur, e.g. no DNS lookup on a reused connection.
type Timings struct {
	Start             time.Time
	FirstResponseByte time.Time
	GotConn           time.Time
	WroteHeaders      time.Time
	DNSStart          time.Time
	DNSDone           time.Time
	ConnectStart      time.Time
	ConnectDone       time.Time
	TLSHandshakeStart time.Time
	TLSHandshakeDone  time.Time
	BodyStart         time.Time
	BodyEnd           time.Time
}

type timingsJSON struct {
	Start             *string `json:"start"`
	FirstResponseByte *string `json:"first_byte"`
	GotConn           *string `json:"connection"`
	WroteHeaders      *string `json:"wrote_headers"`
	DNSStart          *string `json:"dns_start"`
	DNSDone           *string `json:"dns_end"`
	ConnectStart      *string `json:"connect_start"`
	ConnectDone       *string `json:"connect_end"`
	TLSHandshakeStart *string `json:"tls_handshake_start"`
	TLSHandshakeDone  *string `json:"tls_handshake_end"`
	BodyStart         *string `json:"body_start"`
	BodyEnd           *string `json:"body_end"`
}

func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(headers.SQLiteDatetime)
	return &s
}

// MarshalJSON renders every timestamp in SQLite datetime layout, UTC.
func (t Timings) MarshalJSON() ([]byte, error) {
	return json.Marshal(timingsJSON{
		Start:             formatTime(t.Start),
		FirstResponseByte: formatTime(t.FirstResponseByte),
		GotConn:           formatTime(t.GotConn),
		WroteHeaders:      formatTime(t.WroteHeaders),
		DNSStart:          formatTime(t.DNSStart),
		DNSDone:           formatTime(t.DNSDone),
		ConnectStart:      formatTime(t.ConnectStart),
		ConnectDone:       formatTime(t.ConnectDone),
		TLSHandshakeStart: formatTime(t.TLSHandshakeStart),
		TLSHandshakeDone:  formatTime(t.TLSHandshakeDone),
		BodyStart:         formatTime(t.BodyStart),
		BodyEnd:           formatTime(t.BodyEnd),
	})
}

// JSON returns the timings as a JSON object string.
func (t Timings) JSON() string {
	b, err := t.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}

// recorder collects trace events. Dial callbacks may fire on transport
// goroutines, even after the exchange has returned.
type recorder struct {
	mu         sync.Mutex
	timings    Timings
	remoteAddr string
}

func (r *recorder) mark(dst *time.Time) {
	now := time.Now()
	r.mu.Lock()
	if dst.IsZero() {
		*dst = now
	}
	r.mu.Unlock()
}

func (r *recorder) snapshot() (Timings, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timings, r.remoteAddr
}

func (r *recorder) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart:     func(httptrace.DNSStartInfo) { r.mark(&r.timings.DNSStart) },
		DNSDone:      func(httptrace.DNSDoneInfo) { r.mark(&r.timings.DNSDone) },
		ConnectStart: func(string, string) { r.mark(&r.timings.ConnectStart) },
		ConnectDone:  func(string, string, error) { r.mark(&r.timings.ConnectDone) },
		GotConn: func(info httptrace.GotConnInfo) {
			r.mark(&r.timings.GotConn)
			r.mu.Lock()
			r.remoteAddr = info.Conn.RemoteAddr().String()
			r.mu.Unlock()
		},
		TLSHandshakeStart:    func() { r.mark(&r.timings.TLSHandshakeStart) },
		TLSHandshakeDone:     func(tls.ConnectionState, error) { r.mark(&r.timings.TLSHandshakeDone) },
		WroteHeaders:         func() { r.mark(&r.timings.WroteHeaders) },
		GotFirstResponseByte: func() { r.mark(&r.timings.FirstResponseByte) },
	}
}
