package http

import "io"

// Stream yields one response per Next call. Each call performs its exchange
// at call time, so every row observes the rate limiter's current spacing.
// A stream is finite and cannot be rewound.
type Stream struct {
	client *Client
	reqs   []*Request
	pos    int
	done   bool
}

// Stream returns a stream over reqs. Nothing is sent until Next is called.
func (c *Client) Stream(reqs ...*Request) *Stream {
	return &Stream{client: c, reqs: reqs}
}

// Next performs the next exchange. It returns io.EOF once every request has
// been sent, and after any failed exchange.
func (s *Stream) Next() (*Response, error) {
	if s.done || s.pos >= len(s.reqs) {
		s.done = true
		return nil, io.EOF
	}
	req := s.reqs[s.pos]
	s.pos++

	resp, err := s.client.Do(req)
	if err != nil {
		s.done = true
		return nil, err
	}
	return resp, nil
}

// Sent returns how many exchanges the stream has started.
func (s *Stream) Sent() int { return s.pos }
