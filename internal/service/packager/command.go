package packager

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MaskRay/vscode-ccls/internal/config"
	"github.com/MaskRay/vscode-ccls/internal/logger"
	"github.com/MaskRay/vscode-ccls/internal/service/common"
	"github.com/MaskRay/vscode-ccls/internal/service/updater"
)

// baseVsceExecutable is the npm-installed packaging tool for VS Code extensions.
const baseVsceExecutable = "vsce"

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to the settings YAML file.
	ConfigPath string
	// OutputPath overrides the configured artifact location when non-empty.
	OutputPath string
	// WriteManifest also produces the toolkit release manifest after packaging.
	WriteManifest bool
	// Runner overrides subprocess execution; nil means os/exec.
	Runner common.CommandRunner
}

// packager produces the distributable extension archive by delegating to vsce.
// It is unexported; callers should use Run, which encapsulates setup.
type packager struct {
	// cfg holds the tool directory, output path and update folder.
	cfg *config.Config
	// outputPath is the resolved artifact location.
	outputPath string
	// runner executes the external packaging tool.
	runner common.CommandRunner
}

// Run executes the packaging workflow. The returned error carries the
// packaging tool's exit code, so the process exits exactly as vsce did.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "ccls-packager")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	outputPath := cfg.OutputPath
	if opts.OutputPath != "" {
		outputPath = opts.OutputPath
	}

	runner := opts.Runner
	if runner == nil {
		runner = common.ExecRunner{}
	}

	pkg := &packager{
		cfg:        cfg,
		outputPath: outputPath,
		runner:     runner,
	}

	if err = pkg.packageExtension(ctx); err != nil {
		return err
	}

	if opts.WriteManifest {
		if err = pkg.writeManifest(ctx); err != nil {
			return fmt.Errorf("write release manifest: %w", err)
		}
	}

	logger.Info(ctx, "Packaging completed successfully")

	return nil
}

// packageExtension invokes vsce with the fixed "package" verb and the
// resolved output path. The tool's output streams through untouched, and
// artifact creation is not verified here - vsce owns both.
func (p *packager) packageExtension(ctx context.Context) error {
	tool := filepath.Join(filepath.FromSlash(p.cfg.ToolsDir), vsceExecutable())

	logger.InfoKV(ctx, "Packaging extension", "tool", tool, "output", p.outputPath)

	if err := p.runner.Run(ctx, tool, "package", "-o", p.outputPath); err != nil {
		return fmt.Errorf("package extension: %w", err)
	}

	return nil
}

// writeManifest checksums the toolkit binaries and saves the release
// manifest consumed by ccls-updater.
func (p *packager) writeManifest(ctx context.Context) error {
	manifest := updater.NewManifest()

	for _, fileName := range updater.ToolExecutables() {
		if _, err := os.Stat(fileName); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", fileName, os.ErrNotExist)
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", fileName, err)
		}

		checksum, err := updater.GetFileChecksum(fileName)
		if err != nil {
			return err
		}

		manifest.Files[fileName] = base64.StdEncoding.EncodeToString(checksum)
	}

	contents, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving release manifest", "path", updater.ManifestFilename)

	if err = os.WriteFile(updater.ManifestFilename, contents, updater.DefaultFileMode); err != nil {
		return err
	}

	p.printNextSteps(ctx, manifest)

	return nil
}

// printNextSteps logs human-readable guidance for distributing the release.
func (p *packager) printNextSteps(ctx context.Context, manifest *updater.Manifest) {
	files := make([]string, 0, len(manifest.Files)+1)
	for fileName := range manifest.Files {
		files = append(files, fileName)
	}

	files = append(files, updater.ManifestFilename)
	sort.Strings(files)

	folder := p.cfg.UpdateFolder
	if folder == "" {
		folder = "your update folder"
	}

	var builder strings.Builder

	builder.WriteString("You should upload the following files to ")
	builder.WriteString(folder)
	builder.WriteString(":\n")

	for i, name := range files {
		if i > 0 {
			builder.WriteString(",\n")
		}

		builder.WriteString(name)
	}

	logger.Info(ctx, builder.String())
}

// vsceExecutable returns the vsce launcher name for the current platform.
func vsceExecutable() string {
	return vsceExecutableFor(runtime.GOOS)
}

// vsceExecutableFor returns the vsce launcher name for the given GOOS value.
// npm wraps scripts in a ".cmd" shim on the Windows platform family.
func vsceExecutableFor(goos string) string {
	if strings.Contains(strings.ToLower(goos), "windows") {
		return baseVsceExecutable + ".cmd"
	}

	return baseVsceExecutable
}
