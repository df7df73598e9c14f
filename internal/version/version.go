// Package version exposes build metadata injected via -ldflags.
package version

var (
	// Version is the release tag, or "dev" for local builds
	Version = "dev"
	// Commit is the short git commit hash
	Commit = "dev"
	// BuildTime is the RFC 3339 build timestamp
	BuildTime = "unknown"
)
