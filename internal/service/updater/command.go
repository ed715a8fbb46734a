package updater

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/MaskRay/vscode-ccls/internal/config"
	"github.com/MaskRay/vscode-ccls/internal/logger"
	"github.com/MaskRay/vscode-ccls/internal/service/common"
)

var (
	errNoUpdateFolder       = errors.New("update folder is not configured")
	errEmptyManifest        = errors.New("release manifest is empty")
	errNoChecksum           = errors.New("checksum missing for file")
	errBadHTTPStatus        = errors.New("unexpected http status")
	errInvalidVersionOutput = errors.New("invalid version output format")
)

// versionCommandTimeout is the timeout for probing the installed toolkit version.
const versionCommandTimeout = 10 * time.Second

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// HTTPClient overrides the client used to fetch release artifacts.
	HTTPClient *http.Client
}

// runner holds the mutable state and helpers for a single update execution.
// It is intentionally unexported; call Run(ctx, Options) from callers.
type runner struct {
	cfg                *config.Config    // Settings loaded from YAML.
	manifest           *Manifest         // Remote manifest describing the release.
	localVersion       string            // Detected local toolkit version.
	filesOutdated      bool              // Whether local files differ from manifest checksums.
	temporaryDirectory string            // Where new files are downloaded before apply.
	downloadedFiles    map[string]string // Logical name -> local temp path.
	guard              *common.RunGuard  // Concurrent-run protection.
	httpClient         *http.Client      // Client used for manifest and artifact fetches.
}

// Run executes the updater lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "ccls-updater")

	u, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer u.cleanup(ctx)

	if err = u.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Updater run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Updater completed")

	return nil
}

// newRunner loads settings and takes the run guard before doing any work.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if cfg.UpdateFolder == "" {
		return nil, errNoUpdateFolder
	}

	u := &runner{
		cfg:             cfg,
		downloadedFiles: make(map[string]string, defaultMapCapacity),
		guard:           common.NewRunGuard(MarkerFilename, UpdaterExecutable()),
		httpClient:      opts.HTTPClient,
	}

	if u.httpClient == nil {
		u.httpClient = http.DefaultClient
	}

	if err = u.guard.Acquire(ctx); err != nil {
		return nil, err
	}

	return u, nil
}

// run executes the update workflow:
// 1) Detect the installed toolkit version.
// 2) Fetch the remote release manifest.
// 3) Compare versions and checksums.
// 4) Download and apply files if anything is out of date.
func (u *runner) run(ctx context.Context) error {
	logger.Info(ctx, "Detecting local version from installed executable")

	u.localVersion = u.detectLocalVersion(ctx)

	logger.Info(ctx, "Downloading the release manifest from the update folder")

	if err := u.fetchManifest(ctx); err != nil {
		return fmt.Errorf("download release manifest: %w", err)
	}

	versionUpdateNeeded := u.compareVersions(ctx, u.localVersion, u.manifest.VersionNumber)

	logger.Info(ctx, "Verifying checksums of installed toolkit files")

	if err := u.validateChecksums(ctx); err != nil {
		return fmt.Errorf("validate checksums: %w", err)
	}

	if !versionUpdateNeeded && !u.filesOutdated {
		logger.Info(ctx, "No update required - version and files are current")
		return nil
	}

	logger.Info(ctx, "Downloading update files to a temporary folder")

	if err := u.downloadFiles(ctx); err != nil {
		return fmt.Errorf("download update files: %w", err)
	}

	logger.Info(ctx, "Applying downloaded files")

	if err := u.applyFiles(ctx); err != nil {
		return fmt.Errorf("apply update files: %w", err)
	}

	return nil
}

// detectLocalVersion probes the installed publisher binary for its version.
// An empty string means no usable installation was found (first install).
func (u *runner) detectLocalVersion(ctx context.Context) string {
	cmdCtx, cancel := context.WithTimeout(ctx, versionCommandTimeout)
	defer cancel()

	executable := PublisherExecutable()

	output, err := exec.CommandContext(cmdCtx, executable, "version").Output()
	if err != nil {
		logger.Warnf(ctx, "Could not get local version from %s: %v", executable, err)
		return ""
	}

	parsed, err := parseVersionFromOutput(string(output))
	if err != nil {
		logger.Warnf(ctx, "Could not parse version output from %s: %v", executable, err)
		return ""
	}

	return parsed
}

// parseVersionFromOutput extracts the semantic version from `version` output.
func parseVersionFromOutput(output string) (string, error) {
	// Parse "version: 1.0.0, commit: abc123, built at: ..." → "1.0.0".
	output = strings.TrimSpace(output)
	if strings.HasPrefix(output, "version: ") {
		parts := strings.Split(output, ",")
		if len(parts) > 0 {
			parsed := strings.TrimSpace(strings.TrimPrefix(parts[0], "version: "))
			if parsed != "" {
				return parsed, nil
			}
		}
	}

	return "", errInvalidVersionOutput
}

// compareVersions compares local vs remote versions and logs the decision.
func (u *runner) compareVersions(ctx context.Context, localVersion, remoteVersion string) bool {
	if localVersion == "" {
		logger.Info(ctx, "No local version detected, update needed")
		return true
	}

	if localVersion != remoteVersion {
		logger.InfoKV(ctx, "Version mismatch detected",
			"local", localVersion, "remote", remoteVersion)

		return true
	}

	logger.InfoKV(ctx, "Versions match, checking file integrity",
		"version", localVersion)

	// Still check checksums for integrity.
	return false
}

// fetchManifest downloads and parses the remote release manifest.
func (u *runner) fetchManifest(ctx context.Context) error {
	response, err := u.getFileBodyFromServer(ctx, ManifestFilename)
	if response != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}

	if err != nil {
		return err
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	var manifest Manifest
	if err = yaml.Unmarshal(data, &manifest); err != nil {
		return err
	}

	if len(manifest.Files) == 0 {
		return errEmptyManifest
	}

	u.manifest = &manifest

	return nil
}

// getFileBodyFromServer fetches a file from the configured update folder.
func (u *runner) getFileBodyFromServer(ctx context.Context, fileName string) (*http.Response, error) {
	updateURL, err := url.Parse(u.cfg.UpdateFolder)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	updateURL.Path = path.Join(updateURL.Path, fileName)
	finalURL := updateURL.String()

	reqCtx, cancel := context.WithTimeout(ctx, u.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := u.httpClient.Do(req)
	if err != nil {
		return response, err
	}

	if response.StatusCode != http.StatusOK {
		return response, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return response, nil
}

// validateChecksums compares local and manifest checksums to decide whether
// files must be replaced. It returns early on the first mismatch to avoid
// unnecessary I/O when an update is already known to be needed.
func (u *runner) validateChecksums(ctx context.Context) error {
	for _, fileName := range u.manifestFiles() {
		encoded, ok := u.manifest.Files[fileName]
		if !ok {
			return fmt.Errorf("checksum for %s: %w", fileName, errNoChecksum)
		}

		matches, err := ChecksumMatches(fileName, encoded)
		if err != nil {
			return err
		}

		if !matches {
			u.filesOutdated = true
			return nil
		}

		logger.Debugf(ctx, "Checksum verified for %s", fileName)
	}

	return nil
}

// manifestFiles returns the manifest file names in deterministic order.
func (u *runner) manifestFiles() []string {
	files := make([]string, 0, len(u.manifest.Files))
	for fileName := range u.manifest.Files {
		files = append(files, fileName)
	}

	sort.Strings(files)

	return files
}

// downloadFiles downloads manifest files into a temporary directory.
func (u *runner) downloadFiles(ctx context.Context) error {
	temporaryDirectory, err := os.MkdirTemp("", "ccls-tools-updater-")
	if err != nil {
		return err
	}

	u.temporaryDirectory = temporaryDirectory

	for _, fileName := range u.manifestFiles() {
		var response *http.Response

		response, err = u.getFileBodyFromServer(ctx, fileName)
		if err != nil {
			if response != nil {
				_ = response.Body.Close()
			}

			return err
		}

		outputFileName := filepath.Clean(filepath.Join(temporaryDirectory, fileName))

		var outputFile *os.File

		outputFile, err = os.Create(outputFileName)
		if err != nil {
			_ = response.Body.Close()

			return err
		}

		_, err = io.Copy(outputFile, response.Body)

		_ = response.Body.Close()
		_ = outputFile.Close()

		if err != nil {
			return err
		}

		u.downloadedFiles[fileName] = outputFileName
		logger.InfoKV(ctx, "Downloaded file", "path", outputFileName)
	}

	return nil
}

// applyFiles replaces installed files with downloaded ones using go-update
// with checksum validation.
func (u *runner) applyFiles(ctx context.Context) error {
	for fileName, downloadedFileName := range u.downloadedFiles {
		logger.InfoKV(ctx, "Updating file", "file", fileName)

		data, err := os.ReadFile(filepath.Clean(downloadedFileName))
		if err != nil {
			return err
		}

		encoded, ok := u.manifest.Files[fileName]
		if !ok {
			return fmt.Errorf("checksum for %s: %w", downloadedFileName, errNoChecksum)
		}

		var checksum []byte

		checksum, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return err
		}

		if _, err = os.Stat(fileName); err != nil && os.IsNotExist(err) {
			var target *os.File

			if target, err = os.Create(fileName); err != nil {
				return err
			}

			if err = target.Close(); err != nil {
				return err
			}
		}

		options := goupdate.Options{
			TargetPath: fileName,
			TargetMode: DefaultFileMode,
			Checksum:   checksum,
			Hash:       DefaultChecksumFunction,
		}

		if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
			return err
		}

		oldFileName := fileName + ".old"
		if _, err = os.Stat(oldFileName); err == nil {
			_ = os.Remove(oldFileName)
		}
	}

	return nil
}

// cleanup removes temporary artifacts and the running marker.
func (u *runner) cleanup(ctx context.Context) {
	u.guard.Release(ctx)

	if u.temporaryDirectory != "" {
		if _, err := os.Stat(u.temporaryDirectory); err == nil {
			_ = os.RemoveAll(u.temporaryDirectory)
		}
	}

	logger.Info(ctx, "The updater has been stopped")
}
