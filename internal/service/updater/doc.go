// Package updater keeps the toolkit binaries current. It fetches the
// release manifest from the configured update folder, compares the installed
// version and file checksums against it, and applies replacement binaries
// in place. It also owns the manifest format the packager produces.
package updater
