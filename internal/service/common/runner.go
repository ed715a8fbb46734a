//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// CommandRunner runs an external command and blocks until it exits.
// Implementations must return an error that carries the subprocess exit
// code when the command ran but exited non-zero.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner invokes commands via os/exec with inherited standard streams.
// Output is neither captured nor transformed: the external tool owns its
// own diagnostics, exactly like the shell workflow this replaces.
type ExecRunner struct{}

// Run executes the command and waits for it to finish.
// The returned error is *exec.ExitError when the command exited non-zero.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// ExitCodeError wraps a failure with the process exit code it should
// produce. Services use it when the code is fixed by contract rather
// than inherited from the subprocess.
type ExitCodeError struct {
	// Code is the exit code the process must terminate with.
	Code int
	// Err is the underlying failure.
	Err error
}

// Error renders the underlying failure.
func (e *ExitCodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}

	return e.Err.Error()
}

// Unwrap exposes the underlying failure for errors.Is/As.
func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by a service Run function to the process
// exit code. Subprocess exit codes pass through unchanged; launch failures
// and other errors map to 1; nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var codeErr *ExitCodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
	}

	return 1
}
