package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/MaskRay/vscode-ccls/internal/config"
	"github.com/MaskRay/vscode-ccls/internal/logger"
	"github.com/MaskRay/vscode-ccls/internal/service/common"
	"github.com/MaskRay/vscode-ccls/internal/service/updater"
)

const (
	// DefaultBumpKind is used when no bump kind is given on the command line.
	DefaultBumpKind = "patch"

	// MarkerFilename marks that a publish is running right now to avoid parallel releases.
	MarkerFilename = "ccls-tools-publish-marker.bin"

	// followTagsFlag makes git push any new tags reachable from the pushed commits.
	followTagsFlag = "--follow-tags"
)

// knownBumpKinds are the version segments npm understands directly.
// Other values are forwarded unchecked; npm version also accepts
// literal versions and keywords like "prerelease".
//
//nolint:gochecknoglobals // Static lookup table.
var knownBumpKinds = map[string]struct{}{
	"patch": {},
	"minor": {},
	"major": {},
}

// Options contains inputs for the publisher entry point.
type Options struct {
	// ConfigPath is an optional path to the settings YAML file.
	ConfigPath string
	// BumpKind selects which version segment to increment; empty means patch.
	BumpKind string
	// Runner overrides subprocess execution; nil means os/exec.
	Runner common.CommandRunner
}

// Run bumps the package version and pushes the resulting commit and tag.
// A failed bump exits 1 and never pushes; a failed push surfaces its own
// exit code. Step 1 is not rolled back when step 2 fails.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "ccls-publisher")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	bumpKind := strings.TrimSpace(opts.BumpKind)
	if bumpKind == "" {
		bumpKind = DefaultBumpKind
	}

	if _, ok := knownBumpKinds[bumpKind]; !ok {
		logger.WarnKV(ctx, "Unrecognized bump kind, forwarding to npm as-is", "kind", bumpKind)
	}

	runner := opts.Runner
	if runner == nil {
		runner = common.ExecRunner{}
	}

	guard := common.NewRunGuard(MarkerFilename, updater.PublisherExecutable())
	if err = guard.Acquire(ctx); err != nil {
		return err
	}

	defer guard.Release(ctx)

	logger.InfoKV(ctx, "Bumping version", "kind", bumpKind)

	if err = runner.Run(ctx, "npm", "version", bumpKind); err != nil {
		// The bump step maps every failure to exit code 1.
		return &common.ExitCodeError{
			Code: 1,
			Err:  fmt.Errorf("npm version %s: %w", bumpKind, err),
		}
	}

	logger.InfoKV(ctx, "Pushing release", "remote", cfg.Remote, "branch", cfg.Branch)

	if err = runner.Run(ctx, "git", "push", cfg.Remote, cfg.Branch, followTagsFlag); err != nil {
		return fmt.Errorf("git push: %w", err)
	}

	logger.Info(ctx, "Release published successfully")

	return nil
}
