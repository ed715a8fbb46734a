// Package config loads and persists the optional YAML settings shared by
// the toolkit binaries. Every field defaults to the fixed value the original
// workflow used, so a settings file is never required.
package config
