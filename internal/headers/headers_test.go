package headers

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asg017/sqlite-http/internal/httperr"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a", "A"},
		{"user-agent", "User-Agent"},
		{"USER-AGENT", "User-Agent"},
		{"x-api-KEY", "X-Api-Key"},
		{"content--type", "Content--Type"},
		{"  dup ", "Dup"},
		{"", ""},
		{"-x", "-X"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Canonical(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Canonical(got), "canonicalization must be idempotent")
		})
	}
}

func TestBuildSerialize(t *testing.T) {
	c, err := Build("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "A: b\r\n", c.String())

	c, err = Build("dup", "a", "dup", "b")
	require.NoError(t, err)
	assert.Equal(t, "Dup: a\r\nDup: b\r\n", Serialize(c))

	c, err = Build()
	require.NoError(t, err)
	assert.Equal(t, "", c.String())
}

func TestBuildErrors(t *testing.T) {
	_, err := Build("a")
	assert.ErrorIs(t, err, httperr.ErrArgument)

	_, err = Build("", "x")
	assert.ErrorIs(t, err, httperr.ErrArgument)

	_, err = Build("a:b", "x")
	assert.ErrorIs(t, err, httperr.ErrArgument)

	for _, name := range []string{"my key", "a\tb", "x(y)", "caf\u00e9"} {
		_, err = Build(name, "v")
		assert.ErrorIs(t, err, httperr.ErrArgument, "name %q", name)
	}
	for _, value := range []string{"\x00\xff", "a\x00b", "bell\a", "del\x7f"} {
		_, err = Build("a", value)
		assert.ErrorIs(t, err, httperr.ErrArgument, "value %q", value)
	}

	// Tabs and bytes above ASCII are legal field content.
	c, err := Build(" padded ", "tab\there \xc3\xa9")
	require.NoError(t, err)
	assert.Equal(t, "Padded: tab\there \xc3\xa9\r\n", c.String())
}

func TestValidateParsedCollection(t *testing.T) {
	c := ParseCollection("Good: 1\r\nMy key: v\r\n")
	require.Equal(t, 2, c.Len())
	assert.ErrorIs(t, c.Validate(), httperr.ErrArgument)

	c = ParseCollection("A: 1\r\nB: 2\r\n")
	assert.NoError(t, c.Validate())
}

func TestRoundTrip(t *testing.T) {
	pairs := []string{
		"user-agent", "sqlite-http",
		"accept", "text/html",
		"X-FORWARDED-FOR", "10.0.0.1",
		"accept", "application/json",
		"cookie", "a=1; b=2",
		"empty", "",
		"x-multi", "line one\r\nline two",
	}

	c, err := Build(pairs...)
	require.NoError(t, err)

	var want []Field
	for i := 0; i < len(pairs); i += 2 {
		want = append(want, Field{Key: Canonical(pairs[i]), Value: cleanValue(pairs[i+1])})
	}

	var got []Field
	sc := Parse(c.String())
	for sc.Next() {
		got = append(got, sc.Field())
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, c.Fields(), ParseCollection(c.String()).Fields())
}

func TestGetHas(t *testing.T) {
	c, err := Build("a", "xyz", "A", "abc", "Content-Type", "text/plain")
	require.NoError(t, err)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "xyz", v, "first value wins on duplicates")

	v, ok = c.Get("CONTENT-type")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", v)

	_, ok = c.Get("b")
	assert.False(t, ok)

	assert.True(t, c.Has("content-TYPE"))
	assert.False(t, c.Has("accept"))

	assert.Equal(t, []string{"xyz", "abc"}, c.Values("a"))
	assert.Nil(t, c.Values("missing"))
}

func TestScannerRestartable(t *testing.T) {
	sc := Parse("A: 1\r\nA: 2\r\nUser-Agent: 4\r\n")

	read := func() []Field {
		var out []Field
		for sc.Next() {
			out = append(out, sc.Field())
		}
		return out
	}

	first := read()
	require.Len(t, first, 3)
	assert.Equal(t, Field{"User-Agent", "4"}, first[2])
	assert.False(t, sc.Next(), "exhausted scanner stays exhausted")

	sc.Reset()
	assert.Equal(t, first, read())
}

func TestScannerTolerance(t *testing.T) {
	sc := Parse("\nno colon here\nlower-case:  spaced value  \n: no key\nLast: x")

	require.True(t, sc.Next())
	assert.Equal(t, Field{"Lower-Case", "spaced value"}, sc.Field())
	assert.Equal(t, 3, sc.Line())

	require.True(t, sc.Next())
	assert.Equal(t, Field{"Last", "x"}, sc.Field())

	assert.False(t, sc.Next())
	assert.Equal(t, Field{}, sc.Field())
}

func TestFromHTTPAndApply(t *testing.T) {
	h := http.Header{}
	h.Add("Content-Type", "application/json")
	h.Add("X-B", "2")
	h.Add("X-A", "1")
	h.Add("X-A", "3")

	c := FromHTTP(h)
	assert.Equal(t, "Content-Type: application/json\r\nX-A: 1\r\nX-A: 3\r\nX-B: 2\r\n", c.String())

	req, err := http.NewRequest("GET", "http://example.com", nil)
	require.NoError(t, err)

	sent, err := Build("x-powered-by", "dogs", "host", "override.test", "x-powered-by", "cats")
	require.NoError(t, err)
	sent.Apply(req)

	assert.Equal(t, []string{"dogs", "cats"}, req.Header["X-Powered-By"])
	assert.Equal(t, "override.test", req.Host)
	assert.Empty(t, req.Header["Host"])
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("Tue, 15 Nov 1994 08:12:31 GMT")
	assert.True(t, ok)
	assert.Equal(t, "1994-11-15 08:12:31", got)

	got, ok = ParseDate("Sunday, 06-Nov-94 08:49:37 GMT")
	assert.True(t, ok)
	assert.Equal(t, "1994-11-06 08:49:37", got)

	_, ok = ParseDate("not a date")
	assert.False(t, ok)

	_, ok = ParseDate("")
	assert.False(t, ok)
}
