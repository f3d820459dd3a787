// Package buildinfo holds the release metadata stamped into the balancete
// binary with -ldflags "-X github.com/cleared-dev/balancete/internal/buildinfo.Version=...".
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String is the version line printed by `balancete --version`.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
