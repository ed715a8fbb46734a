package updater

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/MaskRay/vscode-ccls/internal/version"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

var errHashUnavailable = errors.New("hash function unavailable")

const (
	// ManifestFilename stores the toolkit release manifest pushed to clients.
	ManifestFilename = "ccls-tools-version.yaml"

	// MarkerFilename marks that the updater is running right now to avoid parallel execution.
	MarkerFilename = "ccls-tools-update-marker.bin"

	// DefaultFileMode is used when producing artifacts for distribution.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate update file hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// Base executable names; platform helpers append extension when needed.
	basePackagerExecutable  = "ccls-packager"
	basePublisherExecutable = "ccls-publisher"
	baseUpdaterExecutable   = "ccls-updater"

	// defaultMapCapacity is the default initial capacity for maps and slices.
	defaultMapCapacity = 8
)

// ToolExecutables returns the toolkit binaries distributed for this platform.
func ToolExecutables() []string {
	return []string{
		PackagerExecutable(),
		PublisherExecutable(),
		UpdaterExecutable(),
	}
}

// Manifest contains metadata about a published toolkit release.
type Manifest struct {
	// VersionNumber is the semantic version of this release.
	VersionNumber string `yaml:"version"`
	// Files maps filenames to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewManifest produces a Manifest initialized with the current build version.
func NewManifest() *Manifest {
	return &Manifest{
		VersionNumber: version.Short(),
		Files:         make(map[string]string, defaultMapCapacity),
	}
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// ChecksumMatches reports whether the file at path hashes to the
// base64-encoded checksum. A missing file never matches.
func ChecksumMatches(path, encoded string) (bool, error) {
	expected, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, fmt.Errorf("decode checksum for %s: %w", path, err)
	}

	if _, err = os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	actual, err := GetFileChecksum(path)
	if err != nil {
		return false, err
	}

	return string(actual) == string(expected), nil
}

// getExecutableExtension returns ".exe" on Windows and "" elsewhere.
func getExecutableExtension() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return ".exe"
	}

	return ""
}

// PackagerExecutable returns the platform-specific packager binary name.
func PackagerExecutable() string {
	return basePackagerExecutable + getExecutableExtension()
}

// PublisherExecutable returns the platform-specific publisher binary name.
func PublisherExecutable() string {
	return basePublisherExecutable + getExecutableExtension()
}

// UpdaterExecutable returns the platform-specific updater binary name.
func UpdaterExecutable() string {
	return baseUpdaterExecutable + getExecutableExtension()
}
