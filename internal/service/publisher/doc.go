// Package publisher cuts a release: it bumps the package version through
// npm and pushes the resulting commit and tag with --follow-tags.
package publisher
