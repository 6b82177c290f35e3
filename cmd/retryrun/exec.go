package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	errs "github.com/c360/retrywrap/errors"
)

const (
	exitNotExecutable = 126
	exitNotFound      = 127

	// how long Run waits for output pipes after the process group is killed
	pipeWaitDelay = time.Second
)

// CommandError describes a failed attempt of an external command
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command %q", e.Command)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", e.Stderr)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Command is one invocation of an external program
type Command struct {
	Args []string
	// Line is the 1-based line number in a batch file, 0 otherwise
	Line int
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Runner executes commands and classifies their failures so a retry policy
// built on error classes can decide what to repeat.
type Runner struct {
	invalidCodes   []int
	attemptTimeout time.Duration
	stdout         io.Writer
	stderr         io.Writer

	// serializes writes from concurrent batch commands
	outMu sync.Mutex
}

// NewRunner creates a Runner. Exit codes in invalidCodes are reported as
// invalid input; a zero attemptTimeout lets attempts run unbounded.
func NewRunner(invalidCodes []int, attemptTimeout time.Duration, stdout, stderr io.Writer) *Runner {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return &Runner{
		invalidCodes:   slices.Clone(invalidCodes),
		attemptTimeout: attemptTimeout,
		stdout:         stdout,
		stderr:         stderr,
	}
}

// Run executes cmd once. Output of a successful attempt goes to the runner's
// stdout; stderr is forwarded as it arrives and the tail is kept for the error.
func (r *Runner) Run(ctx context.Context, cmd Command) error {
	if len(cmd.Args) == 0 {
		return errs.WrapInvalid(errors.New("empty command"), "Runner", "Run", "start command")
	}

	attemptCtx := ctx
	if r.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, r.attemptTimeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(attemptCtx, cmd.Args[0], cmd.Args[1:]...)
	c.Stdin = nil
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = pipeWaitDelay
	startInOwnGroup(c)

	runErr := c.Run()

	r.outMu.Lock()
	if runErr == nil {
		_, _ = r.stdout.Write(stdout.Bytes())
	}
	_, _ = r.stderr.Write(stderr.Bytes())
	r.outMu.Unlock()

	if runErr == nil {
		return nil
	}
	return r.classify(attemptCtx, cmd, runErr, lastLine(stderr.String()))
}

func (r *Runner) classify(ctx context.Context, cmd Command, runErr error, stderr string) error {
	cmdErr := &CommandError{Command: cmd.String(), ExitCode: -1, Stderr: stderr}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(runErr, exec.ErrNotFound), errors.Is(runErr, os.ErrNotExist):
		cmdErr.Err = errs.ErrCommandNotFound
		return errs.WrapFatal(cmdErr, "Runner", "Run", "start command")

	case errors.Is(runErr, os.ErrPermission):
		cmdErr.Err = errs.ErrCommandNotExecutable
		return errs.WrapFatal(cmdErr, "Runner", "Run", "start command")

	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		cmdErr.Err = errs.ErrTimeout
		return errs.WrapTransient(cmdErr, "Runner", "Run", "wait for command")

	case ctx.Err() != nil:
		// Interrupted by the caller; keep the cancellation visible to errors.Is
		cmdErr.Err = ctx.Err()
		return errs.Wrap(cmdErr, "Runner", "Run", "wait for command")

	case errors.As(runErr, &exitErr):
		cmdErr.ExitCode = exitErr.ExitCode()
	default:
		cmdErr.Err = runErr
		return errs.WrapTransient(cmdErr, "Runner", "Run", "run command")
	}

	switch code := cmdErr.ExitCode; {
	case code == exitNotFound:
		cmdErr.Err = errs.ErrCommandNotFound
		return errs.WrapFatal(cmdErr, "Runner", "Run", "run command")
	case code == exitNotExecutable:
		cmdErr.Err = errs.ErrCommandNotExecutable
		return errs.WrapFatal(cmdErr, "Runner", "Run", "run command")
	case slices.Contains(r.invalidCodes, code):
		cmdErr.Err = errs.ErrCommandFailed
		return errs.WrapInvalid(cmdErr, "Runner", "Run", "run command")
	default:
		cmdErr.Err = errs.ErrCommandFailed
		return errs.WrapTransient(cmdErr, "Runner", "Run", "run command")
	}
}

// ExitCode maps a settled failure to the process exit status: the command's
// own status when it ran, 124 for timeouts, 130 for interrupts, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}
	switch {
	case errors.Is(err, errs.ErrCommandNotFound):
		return exitNotFound
	case errors.Is(err, errs.ErrCommandNotExecutable):
		return exitNotExecutable
	case errors.Is(err, errs.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return 124
	}
	return 1
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	const limit = 200
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
