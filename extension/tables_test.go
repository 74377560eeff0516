//go:build sqlite_vtable

package extension

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer answers with the request method in X-Method, echoes the body and
// sets a cookie.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Seen-Cookie", r.Header.Get("Cookie"))
		w.Header().Set("X-Seen-Agent", r.Header.Get("User-Agent"))
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
		if len(body) == 0 {
			body = []byte("hello " + r.URL.Query().Get("name"))
		}
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestScalarNetworkFunctions(t *testing.T) {
	server := echoServer(t)
	db := openDB(t, New(), Full)

	var body []byte
	require.NoError(t, db.QueryRow("SELECT http_get_body(? || '?name=sqlite')", server.URL).Scan(&body))
	assert.Equal(t, "hello sqlite", string(body))

	require.NoError(t, db.QueryRow("SELECT http_post_body(?, NULL, 'payload')", server.URL).Scan(&body))
	assert.Equal(t, "payload", string(body))

	require.NoError(t, db.QueryRow("SELECT http_do_body('patch', ?, NULL, 'patched')", server.URL).Scan(&body))
	assert.Equal(t, "patched", string(body))

	var headers string
	require.NoError(t, db.QueryRow("SELECT http_get_headers(?, NULL, http_cookies('a', '1'))", server.URL).Scan(&headers))
	assert.Contains(t, headers, "X-Method: GET\r\n")
	assert.Contains(t, headers, "X-Seen-Cookie: a=1\r\n")

	require.NoError(t, db.QueryRow("SELECT http_post_headers(?)", server.URL).Scan(&headers))
	assert.Contains(t, headers, "X-Method: POST\r\n")

	require.NoError(t, db.QueryRow("SELECT http_do_headers('DELETE', ?)", server.URL).Scan(&headers))
	assert.Contains(t, headers, "X-Method: DELETE\r\n")

	var method string
	require.NoError(t, db.QueryRow(
		"SELECT http_headers_get(http_get_headers(?, http_headers('User-Agent', 'tester')), 'x-seen-agent')",
		server.URL,
	).Scan(&method))
	assert.Equal(t, "tester", method)
}

func TestScalarNetworkFunctionErrors(t *testing.T) {
	db := openDB(t, New(), Full)

	tests := []struct {
		query string
		want  string
	}{
		{"SELECT http_get_body()", "usage: http_get_body(url, headers, cookies)"},
		{"SELECT http_get_body('a', 'b', 'c', 'd')", "usage: http_get_body(url, headers, cookies)"},
		{"SELECT http_post_headers()", "usage: http_post_headers(url, headers, body, cookies)"},
		{"SELECT http_do_body('GET')", "usage: http_do_body(method, url, headers, body, cookies)"},
		{"SELECT http_get_body(NULL)", "argument error"},
		{"SELECT http_get_body('ftp://example.com')", "invalid url"},
		{"SELECT http_get_body('http://')", "invalid url"},
		{"SELECT http_get_body('http://localhost', NULL, 'not json')", "argument error"},
		{"SELECT http_get_body('http://127.0.0.1:1')", "connection error"},
	}
	for _, tt := range tests {
		_, err := db.Exec(tt.query)
		require.Error(t, err, tt.query)
		assert.Contains(t, err.Error(), tt.want, tt.query)
	}
}

func TestInvalidHeadersNeverReachServer(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	db := openDB(t, New(), Full)
	for _, q := range []string{
		"SELECT http_get_body(?, http_headers('my key', 'v'))",
		"SELECT http_get_body(?, 'My key: v' || char(13, 10))",
		"SELECT http_post_headers(?, 'A: x' || char(7) || char(13, 10))",
		"SELECT response_status FROM http_get(?, 'Bad(name): 1')",
	} {
		_, err := db.Exec(q, server.URL)
		require.Error(t, err, q)
		assert.Contains(t, err.Error(), "argument error", q)
		assert.NotContains(t, err.Error(), "protocol error", q)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestGetTableRow(t *testing.T) {
	server := echoServer(t)
	db := openDB(t, New(WithUserAgent("sqlite-http-test")), Full)

	var (
		reqURL, reqMethod, reqHeaders, reqCookies string
		reqBody                                   []byte
		status                                    string
		code                                      int64
		respHeaders, respCookies                  string
		respBody                                  []byte
		remote, timings                           string
		meta                                      sql.NullString
		hiddenURL                                 string
	)
	err := db.QueryRow(`
		SELECT request_url, request_method, request_headers, request_cookies, request_body,
		       response_status, response_status_code, response_headers, response_cookies, response_body,
		       remote_address, timings, meta, url
		FROM http_get(?, http_headers('X-Custom', 'yes'), http_cookies('a', '1'))`,
		server.URL+"?name=table",
	).Scan(&reqURL, &reqMethod, &reqHeaders, &reqCookies, &reqBody,
		&status, &code, &respHeaders, &respCookies, &respBody,
		&remote, &timings, &meta, &hiddenURL)
	require.NoError(t, err)

	assert.Equal(t, server.URL+"?name=table", reqURL)
	assert.Equal(t, "GET", reqMethod)
	assert.Equal(t, "X-Custom: yes\r\nCookie: a=1\r\n", reqHeaders)
	assert.Equal(t, `{"a":"1"}`, reqCookies)
	assert.Nil(t, reqBody)

	assert.Equal(t, "201 Created", status)
	assert.Equal(t, int64(201), code)
	assert.Contains(t, respHeaders, "X-Seen-Agent: sqlite-http-test\r\n")
	assert.Contains(t, respHeaders, "Set-Cookie: session=abc\r\n")
	assert.Equal(t, `["session=abc"]`, respCookies)
	assert.Equal(t, "hello table", string(respBody))

	assert.Equal(t, strings.TrimPrefix(server.URL, "http://"), remote)
	assert.False(t, meta.Valid)
	assert.Equal(t, server.URL+"?name=table", hiddenURL)

	var tm map[string]*string
	require.NoError(t, json.Unmarshal([]byte(timings), &tm))
	require.NotNil(t, tm["start"])
	require.NotNil(t, tm["body_end"])
	assert.Nil(t, tm["tls_handshake_start"])
	_, err = time.Parse("2006-01-02 15:04:05", *tm["start"])
	assert.NoError(t, err)
}

func TestPostAndDoTables(t *testing.T) {
	server := echoServer(t)
	db := openDB(t, New(), Full)

	var method string
	var body []byte
	require.NoError(t, db.QueryRow(
		"SELECT request_method, response_body FROM http_post(?, NULL, 'posted')", server.URL,
	).Scan(&method, &body))
	assert.Equal(t, "POST", method)
	assert.Equal(t, "posted", string(body))

	var echoed string
	require.NoError(t, db.QueryRow(
		"SELECT request_method, http_headers_get(response_headers, 'X-Method'), response_body FROM http_do('put', ?, NULL, X'00FF')",
		server.URL,
	).Scan(&method, &echoed, &body))
	assert.Equal(t, "PUT", method)
	assert.Equal(t, "PUT", echoed)
	assert.Equal(t, []byte{0x00, 0xff}, body)
}

func TestRequestTableRequiresURL(t *testing.T) {
	db := openDB(t, New(), Full)

	for _, q := range []string{
		"SELECT * FROM http_get",
		"SELECT * FROM http_post(NULL)",
		"SELECT * FROM http_do('GET')",
	} {
		rows, err := db.Query(q)
		if err == nil {
			for rows.Next() {
			}
			err = rows.Err()
			rows.Close()
		}
		require.Error(t, err, q)
		assert.Contains(t, err.Error(), "usage", q)
	}
}

func TestRequestTableFailureAbortsStatement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	db := openDB(t, New(WithTimeout(50*time.Millisecond)), Full)

	var code int64
	err := db.QueryRow("SELECT response_status_code FROM http_get(?)", server.URL).Scan(&code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network timeout")
}

func TestRecursiveQueryIsRateLimited(t *testing.T) {
	var (
		mu       sync.Mutex
		arrivals []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		w.Write([]byte(r.URL.Query().Get("i")))
	}))
	defer server.Close()

	db := openDB(t, New(), Full)
	db.SetMaxOpenConns(1)

	var rps int64
	require.NoError(t, db.QueryRow("SELECT http_rate_limit(10)").Scan(&rps))
	require.Equal(t, int64(10), rps)

	rows, err := db.Query(`
		WITH RECURSIVE seq(i) AS (
			SELECT 1
			UNION ALL
			SELECT i + 1 FROM seq WHERE i < 4
		)
		SELECT seq.i, response_body
		FROM seq, http_get(? || '?i=' || seq.i)`, server.URL)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var i int64
		var body []byte
		require.NoError(t, rows.Scan(&i, &body))
		got = append(got, string(body))
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"1", "2", "3", "4"}, got)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, arrivals, 4)
	for i := 1; i < len(arrivals); i++ {
		gap := arrivals[i].Sub(arrivals[i-1])
		assert.GreaterOrEqual(t, gap, 95*time.Millisecond, "gap %d", i)
	}
}

func TestTimeoutSetting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.Write([]byte("done"))
	}))
	defer server.Close()

	db := openDB(t, New(), Full)
	db.SetMaxOpenConns(1)

	var ms int64
	require.NoError(t, db.QueryRow("SELECT http_timeout_set(50)").Scan(&ms))
	require.Equal(t, int64(50), ms)

	var body []byte
	err := db.QueryRow("SELECT http_get_body(?)", server.URL).Scan(&body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network timeout")

	require.NoError(t, db.QueryRow("SELECT http_timeout_set('2s')").Scan(&ms))
	require.Equal(t, int64(2000), ms)

	require.NoError(t, db.QueryRow("SELECT http_get_body(?)", server.URL).Scan(&body))
	assert.Equal(t, "done", string(body))
}
