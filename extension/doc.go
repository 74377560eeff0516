//go:build sqlite_vtable

// Package extension binds sqlite-http's functions and table-valued functions
// into github.com/mattn/go-sqlite3 connections.
//
// Two registration variants exist. Full binds everything, including the
// functions that perform HTTP requests. NoNetwork binds only the header and
// cookie helpers, the metadata functions and the settings setters, so a host
// that must forbid outbound traffic from SQL can load it safely. Both share
// the same implementations.
//
// Rate limit and timeout state live in a settings.Settings chosen at
// construction: one per Extension (process scope, the default) or one per
// connection.
//
// The package must be built with the sqlite_vtable tag:
//
//	go test -tags sqlite_vtable ./...
//
// Example usage:
//
//	ext := extension.New(extension.WithRateLimit(5))
//	db := ext.OpenDB(":memory:", extension.Full)
//	defer db.Close()
//
//	var body []byte
//	err := db.QueryRow(`SELECT http_get_body('https://example.com')`).Scan(&body)
package extension
