// Package cookies encodes request cookies as JSON objects and response
// cookies as JSON arrays.
package cookies

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/asg017/sqlite-http/internal/httperr"
)

// Encode returns a JSON object mapping each name to its value. Later
// duplicates replace earlier ones.
func Encode(pairs ...string) (string, error) {
	if len(pairs)%2 != 0 {
		return "", httperr.Argumentf("cookies need an even number of arguments, got %d", len(pairs))
	}
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return EncodeMap(m)
}

// EncodeMap marshals m as a JSON object with sorted keys.
func EncodeMap(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a JSON object of cookie names to values. The empty string
// decodes to no cookies.
func Decode(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, httperr.Argumentf("cookies must be a JSON object of strings: %v", err)
	}
	return m, nil
}

// Header renders m as a Cookie request header value, names sorted.
func Header(m map[string]string) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, (&http.Cookie{Name: name, Value: m[name]}).String())
	}
	return strings.Join(parts, "; ")
}

// EncodeResponse returns the raw Set-Cookie lines as a JSON array.
func EncodeResponse(cs []*http.Cookie) string {
	raw := make([]string, 0, len(cs))
	for _, c := range cs {
		if c.Raw != "" {
			raw = append(raw, c.Raw)
		} else {
			raw = append(raw, c.String())
		}
	}
	b, _ := json.Marshal(raw)
	return string(b)
}
