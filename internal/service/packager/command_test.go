package packager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MaskRay/vscode-ccls/internal/config"
	"github.com/MaskRay/vscode-ccls/internal/service/common"
	"github.com/MaskRay/vscode-ccls/internal/service/updater"
)

// fakeRunner records invocations and returns scripted errors.
type fakeRunner struct {
	calls [][]string
	errs  []error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))

	if len(f.errs) >= len(f.calls) {
		return f.errs[len(f.calls)-1]
	}

	return nil
}

// TestVsceExecutableFor ensures the ".cmd" shim is selected exactly for the Windows family.
func TestVsceExecutableFor(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"windows": "vsce.cmd",
		"Windows": "vsce.cmd",
		"linux":   "vsce",
		"darwin":  "vsce",
		"freebsd": "vsce",
	}
	for goos, want := range cases {
		require.Equal(t, want, vsceExecutableFor(goos), "goos %q", goos)
	}
}

// TestRunInvokesVsceWithFixedArgs verifies the fixed argument list and default output path.
func TestRunInvokesVsceWithFixedArgs(t *testing.T) {
	chdir(t, t.TempDir())

	runner := new(fakeRunner)

	err := Run(context.Background(), &Options{Runner: runner})
	require.NoError(t, err)

	wantTool := filepath.Join(filepath.FromSlash(config.DefaultToolsDir), vsceExecutable())
	require.Equal(t, [][]string{{wantTool, "package", "-o", config.DefaultOutputPath}}, runner.calls)
}

// TestRunPropagatesExitCode checks the process exit code equals the tool's, for 0 and non-zero.
func TestRunPropagatesExitCode(t *testing.T) {
	chdir(t, t.TempDir())

	// Success.
	runner := new(fakeRunner)
	require.Equal(t, 0, common.ExitCode(Run(context.Background(), &Options{Runner: runner})))

	// Non-zero exit passes through unchanged.
	runner = &fakeRunner{errs: []error{&common.ExitCodeError{Code: 3}}}

	err := Run(context.Background(), &Options{Runner: runner})
	require.Error(t, err)
	require.Equal(t, 3, common.ExitCode(err))
}

// TestRunOutputOverride ensures -o replaces the configured artifact path.
func TestRunOutputOverride(t *testing.T) {
	chdir(t, t.TempDir())

	runner := new(fakeRunner)

	err := Run(context.Background(), &Options{OutputPath: "dist/custom.vsix", Runner: runner})
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	require.Equal(t, "dist/custom.vsix", runner.calls[0][3])
}

// TestRunWritesManifest verifies the opt-in release manifest covers the toolkit binaries.
func TestRunWritesManifest(t *testing.T) {
	chdir(t, t.TempDir())

	// Create placeholder toolkit binaries to checksum.
	for _, name := range updater.ToolExecutables() {
		require.NoError(t, os.WriteFile(name, []byte(name+" contents"), 0o755))
	}

	runner := new(fakeRunner)

	err := Run(context.Background(), &Options{WriteManifest: true, Runner: runner})
	require.NoError(t, err)

	data, err := os.ReadFile(updater.ManifestFilename)
	require.NoError(t, err)

	var manifest updater.Manifest
	require.NoError(t, yaml.Unmarshal(data, &manifest))
	require.NotEmpty(t, manifest.VersionNumber)

	for _, name := range updater.ToolExecutables() {
		encoded, ok := manifest.Files[name]
		require.True(t, ok, "manifest misses %s", name)

		matches, err := updater.ChecksumMatches(name, encoded)
		require.NoError(t, err)
		require.True(t, matches)
	}
}

// TestRunManifestRequiresBinaries ensures a missing toolkit binary fails the manifest step.
func TestRunManifestRequiresBinaries(t *testing.T) {
	chdir(t, t.TempDir())

	runner := new(fakeRunner)

	err := Run(context.Background(), &Options{WriteManifest: true, Runner: runner})
	require.ErrorIs(t, err, os.ErrNotExist)
}
