// Package spawn runs external scanner tools and captures their output.
// Output is streamed into a growable buffer as the child produces it, so
// a tool that prints hundreds of megabytes is handled the same as one
// that prints a single line.
package spawn

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// ExitError reports a command that launched and then exited non-zero.
// Its message embeds the underlying exec error ("exit status N") followed
// by whatever the command wrote to stderr.
type ExitError struct {
	Code   int
	Stderr string
	err    *exec.ExitError
}

func (e *ExitError) Error() string {
	msg := e.err.Error()
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.err }

// Run executes name with args, without a shell, and returns the child's
// standard output as text once it exits cleanly.
//
// A command that exits non-zero yields an *ExitError carrying the exit
// code and captured stderr. A command that cannot be launched at all
// (not found, not executable) yields the launch error verbatim, which is
// the same *exec.Error a plain (*exec.Cmd).Output call produces for the
// same invocation. Cancelling ctx kills the child and returns the
// context error.
func Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	// exec drains writer-backed streams continuously, so these grow
	// with the output instead of capping it.
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", err
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExitError{
				Code:   exitErr.ExitCode(),
				Stderr: stderr.String(),
				err:    exitErr,
			}
		}
		return "", err
	}

	return stdout.String(), nil
}
