//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/MaskRay/vscode-ccls/internal/logger"
)

// ErrAlreadyRunning indicates another instance of a guarded workflow is alive.
var ErrAlreadyRunning = errors.New("another instance is already running")

// defaultMarkerLifetime is the period after which a run marker is considered stale.
const defaultMarkerLifetime = 30 * time.Second

// RunGuard prevents two instances of a workflow from running at once.
// It drops a marker file for the duration of the run; a stale marker is
// cleaned up only when no process with the guarded executable name is alive.
type RunGuard struct {
	// MarkerPath is the marker file dropped for the duration of the run.
	MarkerPath string
	// ProcessName is the executable name of the workflow being guarded.
	ProcessName string
	// Lifetime is how long a marker is trusted before it is considered stale.
	Lifetime time.Duration
}

// NewRunGuard constructs a guard with the default marker lifetime.
func NewRunGuard(markerPath, processName string) *RunGuard {
	return &RunGuard{
		MarkerPath:  markerPath,
		ProcessName: processName,
		Lifetime:    defaultMarkerLifetime,
	}
}

// Acquire drops the marker file, failing when a fresh marker or a live
// peer process indicates a concurrent run.
func (g *RunGuard) Acquire(ctx context.Context) error {
	fileInfo, err := os.Stat(g.MarkerPath)
	switch {
	case err == nil:
		if time.Since(fileInfo.ModTime()) <= g.lifetime() {
			return fmt.Errorf("%s: %w", g.MarkerPath, ErrAlreadyRunning)
		}

		logger.InfoKV(ctx, "Stale run marker found, checking for live processes", "marker", g.MarkerPath)

		var alive bool

		alive, err = g.processAlive()
		if err != nil {
			return fmt.Errorf("scan processes: %w", err)
		}

		if alive {
			return fmt.Errorf("%s: %w", g.ProcessName, ErrAlreadyRunning)
		}

		if err = os.Remove(g.MarkerPath); err != nil {
			return fmt.Errorf("remove stale marker: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// No marker, nothing holds the guard.
	default:
		return fmt.Errorf("read run marker: %w", err)
	}

	marker, err := os.Create(g.MarkerPath)
	if err != nil {
		return fmt.Errorf("create run marker: %w", err)
	}

	return marker.Close()
}

// Release removes the marker file. Best-effort.
func (g *RunGuard) Release(ctx context.Context) {
	if err := os.Remove(g.MarkerPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove run marker", "marker", g.MarkerPath, "error", err)
	}
}

// processAlive reports whether a process with the guarded executable name
// (other than the current one) exists.
func (g *RunGuard) processAlive() (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == g.ProcessName {
			return true, nil
		}
	}

	return false, nil
}

func (g *RunGuard) lifetime() time.Duration {
	if g.Lifetime <= 0 {
		return defaultMarkerLifetime
	}

	return g.Lifetime
}
