// Package version exposes the toolkit's build metadata.
//
// Version, Commit, and BuildTime are injected via Go ldflags at release
// time and default to local-build values. Short feeds release manifests;
// Full is the `version` subcommand output the updater parses when probing
// installed binaries.
package version
