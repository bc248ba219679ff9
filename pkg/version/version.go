// Package version provides build and version information for recall.
package version

import (
	"fmt"
	"runtime"
)

// Version is the current recall version. Set via ldflags at build
// time, defaults to dev.
var Version = "dev"

// Build information set via ldflags at build time.
var (
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date in RFC3339 format.
	Date = "unknown"
	// GoVersion is the Go version used to build the binary.
	GoVersion = runtime.Version()
)

// String returns a formatted version string with build info.
func String() string {
	return fmt.Sprintf("recall %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, Date, GoVersion, runtime.GOOS, runtime.GOARCH)
}
