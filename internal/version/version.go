package version

import "fmt"

// Build metadata, injected with -ldflags when the toolkit is released.
// The defaults identify a local developer build.
var (
	// Version is the toolkit's semantic version.
	Version = "0.1.0"
	// Commit is the short git SHA the binaries were built from (or "none").
	Commit = "none"
	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// Short returns the bare semantic version. This is the form compared
// against the version field of release manifests.
func Short() string {
	return Version
}

// Full renders the line printed by the `version` subcommand.
// ccls-updater parses this line when probing installed binaries, so the
// leading "version:" field must stay first.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
