package headers

import (
	"net/mail"
	"strings"
	"time"
)

// SQLiteDatetime matches SQLite's datetime() output with fractional seconds.
const SQLiteDatetime = "2006-01-02 15:04:05.999"

// Scanner walks a serialized header block one line at a time. Nothing is
// parsed ahead of the current line.
type Scanner struct {
	src   string
	rest  string
	field Field
	line  int
}

// Parse returns a Scanner positioned before the first entry of s.
func Parse(s string) *Scanner {
	return &Scanner{src: s, rest: s}
}

// Next advances to the next entry. Blank lines and lines without a colon are
// skipped.
func (s *Scanner) Next() bool {
	for s.rest != "" {
		var line string
		if i := strings.IndexByte(s.rest, '\n'); i >= 0 {
			line, s.rest = s.rest[:i], s.rest[i+1:]
		} else {
			line, s.rest = s.rest, ""
		}
		s.line++

		line = strings.TrimSuffix(line, "\r")
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := Canonical(line[:colon])
		if key == "" {
			continue
		}
		s.field = Field{Key: key, Value: strings.TrimSpace(line[colon+1:])}
		return true
	}
	s.field = Field{}
	return false
}

// Field returns the entry Next stopped on.
func (s *Scanner) Field() Field { return s.field }

// Line returns the 1-based physical line of the current entry.
func (s *Scanner) Line() int { return s.line }

// Reset rewinds the scanner to the start of its input.
func (s *Scanner) Reset() {
	s.rest = s.src
	s.field = Field{}
	s.line = 0
}

// ParseCollection parses a whole header block.
func ParseCollection(s string) Collection {
	var c Collection
	sc := Parse(s)
	for sc.Next() {
		c.fields = append(c.fields, sc.Field())
	}
	return c
}

// ParseDate parses an HTTP date header value (RFC 1123, RFC 850, RFC 5322)
// and formats it in SQLite datetime layout, UTC.
func ParseDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	t, err := mail.ParseDate(value)
	if err != nil {
		for _, layout := range []string{time.RFC1123, time.RFC850, time.ANSIC} {
			if t, err = time.Parse(layout, value); err == nil {
				break
			}
		}
	}
	if err != nil || t.IsZero() {
		return "", false
	}
	return t.UTC().Format(SQLiteDatetime), true
}
