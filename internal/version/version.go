package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
)

//go:embed version.txt
var versionFile string

// Set at build time with -ldflags "-X github.com/asg017/sqlite-http/internal/version.Commit=...".
var (
	Commit = "unknown"
	Date   = "unknown"
)

// Version returns the current sqlite-http version, prefixed with "v".
func Version() string {
	return "v" + strings.TrimPrefix(strings.TrimSpace(versionFile), "v")
}

// Debug returns the four-line build description served by http_debug().
func Debug() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nRuntime: %s %s/%s\nDate: %s",
		Version(),
		Commit,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
		Date,
	)
}
