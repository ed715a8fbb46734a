// Package packager produces the distributable .vsix archive by delegating
// to the vsce packaging tool, propagating its exit code unchanged.
// Optionally it also emits the toolkit release manifest for the updater.
package packager
