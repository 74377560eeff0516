//go:build sqlite_vtable

package extension

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-sqlite3"

	httpclient "github.com/asg017/sqlite-http/internal/http"
	"github.com/asg017/sqlite-http/internal/httperr"
)

// unplannable prices a plan that lacks a required argument. The planner picks
// any other plan first, so joins that feed the argument from another table
// still work.
const unplannable = 1e30

// Visible columns shared by http_get, http_post and http_do. The argument
// columns follow them as HIDDEN columns.
const (
	colRequestURL = iota
	colRequestMethod
	colRequestHeaders
	colRequestCookies
	colRequestBody
	colResponseStatus
	colResponseStatusCode
	colResponseHeaders
	colResponseCookies
	colResponseBody
	colRemoteAddress
	colTimings
	colMeta
	numResponseColumns
)

var responseColumns = []string{
	"request_url TEXT",
	"request_method TEXT",
	"request_headers TEXT",
	"request_cookies TEXT",
	"request_body BLOB",
	"response_status TEXT",
	"response_status_code INTEGER",
	"response_headers TEXT",
	"response_cookies TEXT",
	"response_body BLOB",
	"remote_address TEXT",
	"timings TEXT",
	"meta TEXT",
}

type tableKind int

const (
	getTable tableKind = iota
	postTable
	doTable
)

// params lists the argument columns in call order.
func (k tableKind) params() []string {
	switch k {
	case postTable:
		return []string{"url", "headers", "body", "cookies"}
	case doTable:
		return []string{"method", "url", "headers", "body", "cookies"}
	default:
		return []string{"url", "headers", "cookies"}
	}
}

func (k tableKind) required() []string {
	if k == doTable {
		return []string{"method", "url"}
	}
	return []string{"url"}
}

func (k tableKind) method() string {
	switch k {
	case postTable:
		return "POST"
	case doTable:
		return ""
	default:
		return "GET"
	}
}

// requestArgs maps argument values, indexed like params, to a request.
func (k tableKind) requestArgs(args []any) requestArgs {
	a := requestArgs{method: k.method()}
	for i, name := range k.params() {
		switch name {
		case "method":
			a.method = optText(args, i)
		case "url":
			a.url = optText(args, i)
		case "headers":
			a.headers = optText(args, i)
		case "body":
			a.body = optBlob(args, i)
		case "cookies":
			a.cookies = optText(args, i)
		}
	}
	return a
}

// declaration builds the CREATE TABLE statement for DeclareVTab.
func declaration(visible, hidden []string) string {
	cols := make([]string, 0, len(visible)+len(hidden))
	cols = append(cols, visible...)
	for _, h := range hidden {
		cols = append(cols, h+" HIDDEN")
	}
	return fmt.Sprintf("CREATE TABLE x(%s)", strings.Join(cols, ", "))
}

// planArgs marks usable equality constraints on hidden columns. The argument
// positions are returned in argv order, which is the order Filter receives
// the values in.
func planArgs(cst []sqlite3.InfoConstraint, offset int, params, required []string) *sqlite3.IndexResult {
	used := make([]bool, len(cst))
	seen := make(map[int]bool)
	var positions []string
	for i, c := range cst {
		p := c.Column - offset
		if p < 0 || p >= len(params) || c.Op != sqlite3.OpEQ || !c.Usable || seen[p] {
			continue
		}
		used[i] = true
		seen[p] = true
		positions = append(positions, strconv.Itoa(p))
	}

	cost := float64(1)
	for _, name := range required {
		for p, param := range params {
			if param == name && !seen[p] {
				cost = unplannable
			}
		}
	}
	return &sqlite3.IndexResult{
		Used:          used,
		IdxStr:        strings.Join(positions, ","),
		EstimatedCost: cost,
		EstimatedRows: 1,
	}
}

// filterArgs spreads Filter values back to their argument positions.
func filterArgs(idxStr string, vals []any, n int) ([]any, error) {
	args := make([]any, n)
	if idxStr == "" {
		return args, nil
	}
	for i, s := range strings.Split(idxStr, ",") {
		p, err := strconv.Atoi(s)
		if err != nil || p < 0 || p >= n || i >= len(vals) {
			return nil, fmt.Errorf("corrupt index string %q", idxStr)
		}
		args[p] = vals[i]
	}
	return args, nil
}

type requestModule struct {
	kind tableKind
	b    *binding
}

func (m *requestModule) EponymousOnlyModule() {}

func (m *requestModule) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.Connect(c, args)
}

func (m *requestModule) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	if err := c.DeclareVTab(declaration(responseColumns, m.kind.params())); err != nil {
		return nil, err
	}
	return &requestTable{kind: m.kind, client: m.b.client}, nil
}

func (m *requestModule) DestroyModule() {}

type requestTable struct {
	kind   tableKind
	client *httpclient.Client
}

func (t *requestTable) BestIndex(cst []sqlite3.InfoConstraint, ob []sqlite3.InfoOrderBy) (*sqlite3.IndexResult, error) {
	return planArgs(cst, numResponseColumns, t.kind.params(), t.kind.required()), nil
}

func (t *requestTable) Open() (sqlite3.VTabCursor, error) {
	return &requestCursor{table: t}, nil
}

func (t *requestTable) Disconnect() error { return nil }
func (t *requestTable) Destroy() error    { return nil }

// requestCursor yields the single response row of one Filter call. The
// exchange happens when the row is pulled.
type requestCursor struct {
	table  *requestTable
	args   []any
	stream *httpclient.Stream
	resp   *httpclient.Response
	rowid  int64
	eof    bool
}

func (c *requestCursor) Filter(idxNum int, idxStr string, vals []any) error {
	params := c.table.kind.params()
	args, err := filterArgs(idxStr, vals, len(params))
	if err != nil {
		return err
	}
	c.args = args
	c.resp = nil
	c.rowid = 0
	c.eof = false

	a := c.table.kind.requestArgs(args)
	if a.url == "" {
		return httperr.Argumentf("usage: http_%s(%s)", c.table.kind.name(), strings.Join(params, ", "))
	}
	req, err := a.build()
	if err != nil {
		return err
	}
	c.stream = c.table.client.Stream(req)
	return c.Next()
}

func (c *requestCursor) Next() error {
	resp, err := c.stream.Next()
	if err == io.EOF {
		c.eof = true
		c.resp = nil
		return nil
	}
	if err != nil {
		return err
	}
	c.resp = resp
	c.rowid++
	return nil
}

func (c *requestCursor) EOF() bool { return c.eof }

func (c *requestCursor) Rowid() (int64, error) { return c.rowid, nil }

func (c *requestCursor) Close() error { return nil }

func (c *requestCursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	if col >= numResponseColumns {
		resultValue(ctx, c.args[col-numResponseColumns])
		return nil
	}

	resp := c.resp
	req := resp.Request
	switch col {
	case colRequestURL:
		ctx.ResultText(req.URL)
	case colRequestMethod:
		ctx.ResultText(req.Method)
	case colRequestHeaders:
		ctx.ResultText(req.Header.String())
	case colRequestCookies:
		ctx.ResultText(req.CookiesJSON())
	case colRequestBody:
		if req.Body == nil {
			ctx.ResultNull()
		} else {
			ctx.ResultBlob(req.Body)
		}
	case colResponseStatus:
		ctx.ResultText(resp.Status)
	case colResponseStatusCode:
		ctx.ResultInt64(int64(resp.StatusCode))
	case colResponseHeaders:
		ctx.ResultText(resp.Header.String())
	case colResponseCookies:
		ctx.ResultText(resp.Cookies)
	case colResponseBody:
		ctx.ResultBlob(resp.Body)
	case colRemoteAddress:
		ctx.ResultText(resp.RemoteAddr)
	case colTimings:
		ctx.ResultText(resp.Timings.JSON())
	case colMeta:
		if len(resp.Meta) == 0 {
			ctx.ResultNull()
		} else {
			ctx.ResultText(string(resp.Meta))
		}
	default:
		return fmt.Errorf("column index out of range: %d", col)
	}
	return nil
}

func (k tableKind) name() string {
	switch k {
	case postTable:
		return "post"
	case doTable:
		return "do"
	default:
		return "get"
	}
}

// resultValue echoes an argument value with the SQL type it was passed as.
func resultValue(ctx *sqlite3.SQLiteContext, v any) {
	switch x := v.(type) {
	case nil:
		ctx.ResultNull()
	case string:
		ctx.ResultText(x)
	case []byte:
		ctx.ResultBlob(x)
	case int64:
		ctx.ResultInt64(x)
	case float64:
		ctx.ResultDouble(x)
	default:
		ctx.ResultText(fmt.Sprint(x))
	}
}
