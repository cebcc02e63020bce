// Package buildinfo carries version metadata stamped at link time with
// -ldflags "-X github.com/auditai-dev/auditai/internal/buildinfo.Version=v1.2.3".
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the metadata for --version and /healthz.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
