// Package headers implements the textual header format shared by every
// sqlite-http function: one "Key: value\r\n" line per entry, keys in
// canonical form, duplicates kept in insertion order.
package headers

import (
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/asg017/sqlite-http/internal/httperr"
)

// Field is a single header entry.
type Field struct {
	Key   string
	Value string
}

// Collection is an ordered multimap of canonical header keys to values.
// The zero value is an empty collection ready to use.
type Collection struct {
	fields []Field
}

// Canonical normalizes a header key: every hyphen-delimited segment gets an
// upper-case first letter and lower-case remainder.
//
//	Canonical("user-agent")  == "User-Agent"
//	Canonical("X-API-KEY")   == "X-Api-Key"
func Canonical(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	b := []byte(key)
	upper := true
	for i, c := range b {
		switch {
		case upper && 'a' <= c && c <= 'z':
			b[i] = c - ('a' - 'A')
		case !upper && 'A' <= c && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
		upper = c == '-'
	}
	return string(b)
}

// cleanValue mirrors net/http's header writer: embedded line breaks become
// spaces and surrounding whitespace is dropped.
func cleanValue(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		v = strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
	}
	return strings.TrimSpace(v)
}

// Build creates a collection from a flat key/value list.
func Build(pairs ...string) (Collection, error) {
	var c Collection
	if len(pairs)%2 != 0 {
		return c, httperr.Argumentf("headers need an even number of arguments, got %d", len(pairs))
	}
	c.fields = make([]Field, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i]) == "" {
			return Collection{}, httperr.Argumentf("header name at position %d is empty", i+1)
		}
		if err := validField(strings.TrimSpace(pairs[i]), cleanValue(pairs[i+1])); err != nil {
			return Collection{}, err
		}
		c.Add(pairs[i], pairs[i+1])
	}
	return c, nil
}

// Validate reports the first entry that could not be sent as an HTTP header.
// Collections parsed from text skip the checks Build makes.
func (c Collection) Validate() error {
	for _, f := range c.fields {
		if err := validField(f.Key, f.Value); err != nil {
			return err
		}
	}
	return nil
}

// validField applies the RFC 7230 token and field-value rules.
func validField(key, value string) error {
	if !httpguts.ValidHeaderFieldName(key) {
		return httperr.Argumentf("invalid header name %q", key)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return httperr.Argumentf("header %q has a value with control characters", key)
	}
	return nil
}

// Add appends an entry. The key is canonicalized; existing entries with the
// same key are kept.
func (c *Collection) Add(key, value string) {
	c.fields = append(c.fields, Field{Key: Canonical(key), Value: cleanValue(value)})
}

// Clone returns a collection that shares no storage with c.
func (c Collection) Clone() Collection {
	return Collection{fields: c.Fields()}
}

// Len returns the number of entries.
func (c Collection) Len() int { return len(c.fields) }

// Fields returns a copy of the entries in insertion order.
func (c Collection) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Get returns the first value stored under key.
func (c Collection) Get(key string) (string, bool) {
	key = Canonical(key)
	for _, f := range c.fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether any entry is stored under key.
func (c Collection) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Values returns every value stored under key, in order.
func (c Collection) Values(key string) []string {
	key = Canonical(key)
	var out []string
	for _, f := range c.fields {
		if strings.EqualFold(f.Key, key) {
			out = append(out, f.Value)
		}
	}
	return out
}

// String serializes the collection in wire format.
func (c Collection) String() string {
	var sb strings.Builder
	for _, f := range c.fields {
		sb.WriteString(f.Key)
		sb.WriteString(": ")
		sb.WriteString(f.Value)
		sb.WriteString("\r\n")
	}
	return sb.String()
}

// Serialize is String under the codec's name.
func Serialize(c Collection) string { return c.String() }

// FromHTTP converts a net/http header map. Keys are emitted in sorted order,
// values in the order the map holds them.
func FromHTTP(h http.Header) Collection {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var c Collection
	for _, k := range keys {
		for _, v := range h[k] {
			c.Add(k, v)
		}
	}
	return c
}

// Apply writes every entry onto req exactly as stored. A Host entry sets the
// request host, since net/http ignores it in the header map.
func (c Collection) Apply(req *http.Request) {
	for _, f := range c.fields {
		if f.Key == "Host" {
			req.Host = f.Value
			continue
		}
		req.Header[f.Key] = append(req.Header[f.Key], f.Value)
	}
}
