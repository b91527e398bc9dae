// Package version provides build-time version information.
package version

import "fmt"

// Set at build time via -ldflags.
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns a one-line version banner.
func String() string {
	return fmt.Sprintf("spritesplit %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
