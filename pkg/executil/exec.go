// Package executil runs external commands with timeouts, output capture, and
// secret redaction.
package executil

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// Unredacted is a no-op redactor.
var Unredacted = Redact(nil)

// CmdError describes a command that exited unsuccessfully.
type CmdError struct {
	Cause    error
	Args     string
	Stderr   string
	ExitCode int
}

func (ce *CmdError) Error() string {
	res := fmt.Sprintf("`%v` failed: %v", ce.Args, ce.Cause)
	if ce.Stderr != "" {
		res = fmt.Sprintf("%s: %s", res, ce.Stderr)
	}

	return res
}

func (ce *CmdError) Unwrap() error {
	return ce.Cause
}

func newCmdError(args string, cause error, stderr string, exitCode int) *CmdError {
	return &CmdError{Args: args, Cause: cause, Stderr: stderr, ExitCode: exitCode}
}

// TimeoutBehavior defines what happens when the command outlives the timeout.
// By default, SIGKILL is sent to the process and it is not waited upon.
type TimeoutBehavior struct {
	// Signal determines the signal to send to the process.
	Signal syscall.Signal
	// ShouldWait determines whether to wait for the command to exit once the
	// timeout is reached.
	ShouldWait bool
}

// CmdOpts configures [RunCommandExt].
type CmdOpts struct {
	// Redactor redacts tokens from logged output.
	Redactor func(text string) string
	// Timeout determines how long to wait for the command to exit.
	Timeout time.Duration
	// TimeoutBehavior configures what to do in case of timeout.
	TimeoutBehavior TimeoutBehavior
	// SkipErrorLogging defines whether to skip logging of execution errors.
	SkipErrorLogging bool
	// CaptureStderr defines whether to capture stderr in addition to stdout.
	CaptureStderr bool
}

// DefaultCmdOpts are used for any options left unset.
var DefaultCmdOpts = CmdOpts{
	Timeout:         time.Duration(0),
	Redactor:        Unredacted,
	TimeoutBehavior: TimeoutBehavior{Signal: syscall.SIGKILL, ShouldWait: false},
}

// Redact returns a redactor replacing each of the given items with a mask.
func Redact(items []string) func(text string) string {
	return func(text string) string {
		for _, item := range items {
			text = strings.ReplaceAll(text, item, "******")
		}

		return text
	}
}

// RunCommandExt runs cmd, logging its invocation and output in a
// copy-and-paste friendly form, and returns trimmed stdout. On a non-zero
// exit it returns a [*CmdError] carrying the exit code and captured stderr.
func RunCommandExt(cmd *exec.Cmd, opts CmdOpts) (string, error) {
	execID := uuid.NewString()[:8]
	logCtx := slog.With(slog.String("execID", execID))

	redactor := DefaultCmdOpts.Redactor
	if opts.Redactor != nil {
		redactor = opts.Redactor
	}

	args := strings.Join(cmd.Args, " ")
	logCtx.Info(redactor(args), slog.String("dir", cmd.Dir))

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Run the command in its own process group so a timeout can signal the
	// whole tree, not just the immediate child. A forked grandchild would
	// otherwise survive the signal and keep the output pipes open.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	start := time.Now()

	err := cmd.Start()
	if err != nil {
		return "", newCmdError(redactor(args), err, "", -1)
	}

	done := make(chan error)
	go func() { done <- cmd.Wait() }()

	timeout := DefaultCmdOpts.Timeout
	if opts.Timeout != time.Duration(0) {
		timeout = opts.Timeout
	}

	var timeoutCh <-chan time.Time
	if timeout != 0 {
		timeoutCh = time.NewTimer(timeout).C
	}

	timeoutBehavior := DefaultCmdOpts.TimeoutBehavior
	if opts.TimeoutBehavior.Signal != syscall.Signal(0) {
		timeoutBehavior = opts.TimeoutBehavior
	}

	output := func() string {
		out := stdout.String()
		if opts.CaptureStderr {
			out += stderr.String()
		}

		return out
	}

	select {
	case <-timeoutCh:
		// Negative pid signals the process group.
		_ = syscall.Kill(-cmd.Process.Pid, timeoutBehavior.Signal)
		if timeoutBehavior.ShouldWait {
			<-done
		}

		logCtx.Debug(redactor(output()), slog.Duration("duration", time.Since(start)))

		err = newCmdError(redactor(args), fmt.Errorf("timeout after %v", timeout), "", -1)
		logCtx.Error(err.Error())

		return strings.TrimSuffix(output(), "\n"), err

	case err := <-done:
		if err != nil {
			logCtx.Debug(redactor(output()), slog.Duration("duration", time.Since(start)))

			exitCode := -1

			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
			}

			cmdErr := newCmdError(
				redactor(args),
				errors.New(redactor(err.Error())),
				strings.TrimSpace(redactor(stderr.String())),
				exitCode,
			)
			if !opts.SkipErrorLogging {
				logCtx.Error(cmdErr.Error())
			}

			return strings.TrimSuffix(output(), "\n"), cmdErr
		}
	}

	logCtx.Debug(redactor(output()), slog.Duration("duration", time.Since(start)))

	return strings.TrimSuffix(output(), "\n"), nil
}

// RunCommand is a convenience wrapper around [RunCommandExt].
func RunCommand(name string, opts CmdOpts, arg ...string) (string, error) {
	return RunCommandExt(exec.Command(name, arg...), opts)
}
