package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MaskRay/vscode-ccls/internal/config"
	"github.com/MaskRay/vscode-ccls/internal/service/common"
	"github.com/MaskRay/vscode-ccls/internal/service/packager"
)

// installVsceStub places a fake vsce into node_modules/.bin of the current directory.
func installVsceStub(t *testing.T, script string) {
	t.Helper()

	binDir := filepath.FromSlash(config.DefaultToolsDir)
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	writeStub(t, binDir, "vsce", script)
}

// TestPackager_InvokesVsce runs the packager against a stub vsce that creates the artifact.
func TestPackager_InvokesVsce(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX shell stubs")
	}

	chdir(t, t.TempDir())

	installVsceStub(t, `echo "$@" > vsce.args
mkdir -p out
: > out/ccls.vsix`)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := packager.Run(ctx, &packager.Options{})
	require.NoError(t, err)

	require.Equal(t, "package -o out/ccls.vsix", readArgs(t, "vsce.args"))

	// The stub produced the artifact at the fixed location.
	_, err = os.Stat(filepath.FromSlash(config.DefaultOutputPath))
	require.NoError(t, err)
}

// TestPackager_ToolExitCodePassesThrough ensures a failing vsce surfaces its own code.
func TestPackager_ToolExitCodePassesThrough(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX shell stubs")
	}

	chdir(t, t.TempDir())

	installVsceStub(t, `exit 2`)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := packager.Run(ctx, &packager.Options{})
	require.Error(t, err)
	require.Equal(t, 2, common.ExitCode(err))
}

// TestPackager_MissingToolFails ensures an absent vsce surfaces as a launch failure.
func TestPackager_MissingToolFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX paths")
	}

	chdir(t, t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := packager.Run(ctx, &packager.Options{})
	require.Error(t, err)
	require.Equal(t, 1, common.ExitCode(err))
}
