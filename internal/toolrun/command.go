package toolrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long output is drained after the tool exits or is
// killed.
const waitDelay = 2 * time.Second

// ErrTimeout is returned when a tool exceeds its time bound and is killed.
var ErrTimeout = errors.New("tool timed out")

// Tool is anything that can produce report output: a subprocess, a remote
// service call or an in-process transformation.
type Tool interface {
	// Describe returns the command line (or equivalent) for headers and logs.
	Describe() string
	// Stream runs the tool and writes its output until it finishes.
	// stderr may be nil, in which case the tool decides where diagnostics go.
	Stream(ctx context.Context, stdout, stderr io.Writer) error
}

// LaunchError reports that a tool could not be started at all.
type LaunchError struct {
	Tool string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Tool, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExitError carries a non-zero exit status. Runners record it on the section
// outcome; it never fails a job on its own.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Command is an external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
	// MergeStderr sends the process's stderr into the same stream as stdout.
	MergeStderr bool
}

// Describe returns the command line as a single string.
func (c Command) Describe() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Stream starts the process and blocks until it exits. The exit status is
// reported as *ExitError; the caller decides what it means. A process that
// cannot start yields *LaunchError. When ctx ends the whole process group is
// killed, and output pipes still held by descendants are closed after
// waitDelay.
func (c Command) Stream(ctx context.Context, stdout, stderr io.Writer) error {
	if c.Name == "" {
		return &LaunchError{Tool: "<empty>", Err: errors.New("command name is required")}
	}
	if stdout == nil {
		stdout = io.Discard
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdout = stdout
	if c.MergeStderr {
		cmd.Stderr = stdout
	} else {
		cmd.Stderr = stderr
	}
	cmd.WaitDelay = waitDelay
	killGroupOnCancel(cmd)

	if err := cmd.Start(); err != nil {
		return &LaunchError{Tool: c.Name, Err: err}
	}
	err := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode()}
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		// The tool exited cleanly but left a descendant holding its output.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to capture output of %s: %w", c.Name, err)
	}
	return nil
}

// Output runs the command and returns what it printed on stdout. stderr is
// captured separately and folded into the error when the command fails.
func (c Command) Output(ctx context.Context) ([]byte, error) {
	var stdout strings.Builder
	var stderr strings.Builder
	cmd := c
	cmd.MergeStderr = false
	if err := cmd.Stream(ctx, &stdout, &stderr); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return []byte(stdout.String()), err
		}
		return []byte(stdout.String()), fmt.Errorf("%s: %s: %w", c.Name, msg, err)
	}
	return []byte(stdout.String()), nil
}

// ErrMissingFile marks an input file that does not exist.
var ErrMissingFile = errors.New("file does not exist")

// MissingFile wraps ErrMissingFile with the offending path.
func MissingFile(path string) error {
	return fmt.Errorf("%w: %s", ErrMissingFile, path)
}

// RequireFiles returns MissingFile for the first path that cannot be stat'ed.
func RequireFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return MissingFile(p)
			}
			return err
		}
	}
	return nil
}
