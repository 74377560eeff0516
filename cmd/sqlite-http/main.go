//go:build sqlite_vtable

// Command sqlite-http runs SQL against a database with the sqlite-http
// functions loaded.
package main

import (
	"os"
)

func main() {
	cli := NewCLI(os.Stdout, os.Stderr)
	err := cli.Execute()
	cli.Shutdown()
	if err != nil {
		os.Exit(1)
	}
}
