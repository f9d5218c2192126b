// Package version exposes ragserver build metadata injected via ldflags,
// reported in the startup log.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
