//go:build sqlite_vtable

package extension

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sort"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	httpclient "github.com/asg017/sqlite-http/internal/http"
	"github.com/asg017/sqlite-http/internal/settings"
)

// Driver names registered with database/sql by this package.
const (
	DriverName          = "sqlite3_http"
	DriverNameNoNetwork = "sqlite3_http_no_network"
)

// Variant selects which names are bound into a connection.
type Variant int

const (
	// Full binds every function and table, including the network ones.
	Full Variant = iota
	// NoNetwork binds only the pure helpers and the settings setters.
	NoNetwork
)

func (v Variant) String() string {
	switch v {
	case Full:
		return "full"
	case NoNetwork:
		return "no-network"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Names returns the sorted function and table names bound under v.
func (v Variant) Names() []string {
	b := &binding{}
	var names []string
	for _, f := range b.functions() {
		if v == NoNetwork && f.network {
			continue
		}
		names = append(names, f.name)
	}
	for _, m := range b.modules() {
		if v == NoNetwork && m.network {
			continue
		}
		names = append(names, m.name)
	}
	sort.Strings(names)
	return names
}

// Hooks are passed through to the request executor.
type Hooks struct {
	BeforeRequest httpclient.BeforeRequestHook
	AfterResponse httpclient.AfterResponseHook
	OnError       httpclient.OnErrorHook
}

// Extension binds sqlite-http into go-sqlite3 connections.
type Extension struct {
	scope     settings.Scope
	timeout   time.Duration
	rps       int64
	userAgent string
	hooks     Hooks
	logger    *zap.Logger

	shared *binding
}

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used for registration and exchanges.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extension) { e.logger = logger }
}

// WithTimeout sets the initial per-exchange timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extension) { e.timeout = d }
}

// WithRateLimit sets the initial requests-per-second ceiling. Zero means
// unlimited.
func WithRateLimit(rps int64) Option {
	return func(e *Extension) { e.rps = rps }
}

// WithScope decides whether rate limit and timeout state is shared by every
// connection (ScopeProcess) or owned by each connection (ScopeConnection).
func WithScope(scope settings.Scope) Option {
	return func(e *Extension) { e.scope = scope }
}

// WithHooks installs request executor hooks.
func WithHooks(h Hooks) Option {
	return func(e *Extension) { e.hooks = h }
}

// WithUserAgent sets the User-Agent sent when a request does not carry one.
func WithUserAgent(ua string) Option {
	return func(e *Extension) { e.userAgent = ua }
}

// New creates an Extension. Settings are process scoped unless WithScope says
// otherwise.
func New(opts ...Option) *Extension {
	e := &Extension{
		scope:   settings.ScopeProcess,
		timeout: settings.DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.scope == settings.ScopeProcess {
		e.shared = e.newBinding()
	}
	return e
}

// Settings returns the process-wide settings, or nil under connection scope.
func (e *Extension) Settings() *settings.Settings {
	if e.shared == nil {
		return nil
	}
	return e.shared.settings
}

// Scope reports where settings live.
func (e *Extension) Scope() settings.Scope { return e.scope }

func (e *Extension) newBinding() *binding {
	s := settings.New(e.timeout, e.rps)
	client := httpclient.NewClient(httpclient.Config{
		Settings:      s,
		UserAgent:     e.userAgent,
		BeforeRequest: e.hooks.BeforeRequest,
		AfterResponse: e.hooks.AfterResponse,
		OnError:       e.hooks.OnError,
		Logger:        e.logger,
	})
	return &binding{settings: s, client: client}
}

func (e *Extension) bindingFor() *binding {
	if e.shared != nil {
		return e.shared
	}
	return e.newBinding()
}

// Register binds every function and table into conn.
func (e *Extension) Register(conn *sqlite3.SQLiteConn) error {
	return e.register(conn, Full)
}

// RegisterNoNetwork binds only the functions that never touch the network.
// Network names stay undefined, so calling them fails with SQLite's own
// "no such function" or "no such table" error.
func (e *Extension) RegisterNoNetwork(conn *sqlite3.SQLiteConn) error {
	return e.register(conn, NoNetwork)
}

func (e *Extension) register(conn *sqlite3.SQLiteConn, v Variant) error {
	b := e.bindingFor()

	for _, f := range b.functions() {
		if v == NoNetwork && f.network {
			continue
		}
		if err := conn.RegisterFunc(f.name, f.impl, f.pure); err != nil {
			return fmt.Errorf("failed to register function %s: %w", f.name, err)
		}
	}
	for _, m := range b.modules() {
		if v == NoNetwork && m.network {
			continue
		}
		if err := conn.CreateModule(m.name, m.module); err != nil {
			return fmt.Errorf("failed to create module %s: %w", m.name, err)
		}
	}

	e.logger.Debug("sqlite-http registered",
		zap.Stringer("variant", v),
		zap.Stringer("scope", e.scope),
	)
	return nil
}

// Driver returns a go-sqlite3 driver whose connections carry variant v.
func (e *Extension) Driver(v Variant) *sqlite3.SQLiteDriver {
	return &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return e.register(conn, v)
		},
	}
}

// OpenDB opens dsn with variant v bound into every pooled connection. No
// driver name is registered globally.
func (e *Extension) OpenDB(dsn string, v Variant) *sql.DB {
	return sql.OpenDB(&connector{dsn: dsn, driver: e.Driver(v)})
}

type connector struct {
	dsn    string
	driver *sqlite3.SQLiteDriver
}

func (c *connector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *connector) Driver() driver.Driver { return c.driver }

// Default backs the drivers registered in init.
var Default = New()

func init() {
	sql.Register(DriverName, Default.Driver(Full))
	sql.Register(DriverNameNoNetwork, Default.Driver(NoNetwork))
}
