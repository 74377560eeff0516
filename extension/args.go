//go:build sqlite_vtable

package extension

import (
	"fmt"
	"math"
	"strconv"

	"github.com/asg017/sqlite-http/internal/httperr"
)

// asText converts a SQL value to text. NULL reports false.
func asText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	default:
		return fmt.Sprint(x), true
	}
}

// asBlob converts a SQL value to bytes. NULL reports false.
func asBlob(v any) ([]byte, bool) {
	if b, ok := v.([]byte); ok {
		return b, true
	}
	s, ok := asText(v)
	if !ok {
		return nil, false
	}
	return []byte(s), true
}

// optText returns args[i] as text, or "" when it is absent or NULL.
func optText(args []any, i int) string {
	if i >= len(args) {
		return ""
	}
	s, _ := asText(args[i])
	return s
}

// optBlob returns args[i] as bytes, or nil when it is absent or NULL.
func optBlob(args []any, i int) []byte {
	if i >= len(args) {
		return nil
	}
	b, _ := asBlob(args[i])
	return b
}

// pairs converts a flat key/value argument list to text. NULL is rejected.
func pairs(fn string, args []any) ([]string, error) {
	if len(args)%2 != 0 {
		return nil, httperr.Argumentf("%s: expected an even number of arguments, got %d", fn, len(args))
	}
	out := make([]string, len(args))
	for i, a := range args {
		s, ok := asText(a)
		if !ok {
			return nil, httperr.Argumentf("%s: argument %d is NULL", fn, i+1)
		}
		out[i] = s
	}
	return out, nil
}

// asInt converts an INTEGER, whole REAL or numeric TEXT value to an int64.
func asInt(fn string, v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, httperr.Argumentf("%s: %v is not a whole number", fn, x)
		}
		return int64(x), nil
	case nil:
		return 0, httperr.Argumentf("%s: argument is NULL", fn)
	}
	s, _ := asText(v)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, httperr.Argumentf("%s: %q is not an integer", fn, s)
	}
	return n, nil
}

// arity checks len(args) against [min, max] and reports usage otherwise.
func arity(args []any, min, max int, usage string) error {
	if len(args) < min || len(args) > max {
		return httperr.Argumentf("usage: %s", usage)
	}
	return nil
}
