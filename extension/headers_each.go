//go:build sqlite_vtable

package extension

import (
	"github.com/mattn/go-sqlite3"

	"github.com/asg017/sqlite-http/internal/headers"
)

const (
	colEachKey = iota
	colEachValue
	colEachHeaders
)

// headersEachModule is http_headers_each(headers): one row per header line.
type headersEachModule struct{}

func (m *headersEachModule) EponymousOnlyModule() {}

func (m *headersEachModule) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.Connect(c, args)
}

func (m *headersEachModule) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	if err := c.DeclareVTab(declaration([]string{"key TEXT", "value TEXT"}, []string{"headers TEXT"})); err != nil {
		return nil, err
	}
	return &headersEachTable{}, nil
}

func (m *headersEachModule) DestroyModule() {}

type headersEachTable struct{}

func (t *headersEachTable) BestIndex(cst []sqlite3.InfoConstraint, ob []sqlite3.InfoOrderBy) (*sqlite3.IndexResult, error) {
	return planArgs(cst, colEachHeaders, []string{"headers"}, []string{"headers"}), nil
}

func (t *headersEachTable) Open() (sqlite3.VTabCursor, error) {
	return &headersEachCursor{}, nil
}

func (t *headersEachTable) Disconnect() error { return nil }
func (t *headersEachTable) Destroy() error    { return nil }

type headersEachCursor struct {
	raw     any
	scanner *headers.Scanner
	rowid   int64
	eof     bool
}

func (c *headersEachCursor) Filter(idxNum int, idxStr string, vals []any) error {
	args, err := filterArgs(idxStr, vals, 1)
	if err != nil {
		return err
	}
	c.raw = args[0]
	c.scanner = headers.Parse(optText(args, 0))
	c.rowid = 0
	c.eof = false
	return c.Next()
}

func (c *headersEachCursor) Next() error {
	if !c.scanner.Next() {
		c.eof = true
		return nil
	}
	c.rowid++
	return nil
}

func (c *headersEachCursor) EOF() bool { return c.eof }

func (c *headersEachCursor) Rowid() (int64, error) { return c.rowid, nil }

func (c *headersEachCursor) Close() error { return nil }

func (c *headersEachCursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	switch col {
	case colEachKey:
		ctx.ResultText(c.scanner.Field().Key)
	case colEachValue:
		ctx.ResultText(c.scanner.Field().Value)
	case colEachHeaders:
		resultValue(ctx, c.raw)
	}
	return nil
}
