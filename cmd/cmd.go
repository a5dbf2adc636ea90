package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Executor runs external commands. Every process harbomux spawns goes through
// an Executor so callers can be tested without a real multiplexer installed.
type Executor interface {
	// Output runs the command and returns its standard output. If the command
	// exits non-zero the error is an *exec.ExitError carrying stderr.
	Output(cmd *exec.Cmd) ([]byte, error)
	// Interactive runs the command attached to the caller's terminal and
	// blocks until it exits. A non-zero exit is reported through the returned
	// status, not the error; the error is only set when the command could not
	// be started or waited on.
	Interactive(cmd *exec.Cmd) (int, error)
}

type Exec struct{}

func (e Exec) Output(cmd *exec.Cmd) ([]byte, error) {
	return cmd.Output()
}

func (e Exec) Interactive(cmd *exec.Cmd) (int, error) {
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if code, ok := ExitCode(err); ok {
		return code, nil
	}
	return -1, err
}

func MakeExecutor() Executor {
	return Exec{}
}

// ToString renders cmd the way it would be typed in a shell.
func ToString(cmd *exec.Cmd) string {
	if cmd == nil {
		return "<nil>"
	}
	return Join(cmd.Args...)
}

// ExitCode extracts the exit status from the error returned by running a
// command. ok is false when err does not describe a finished process.
func ExitCode(err error) (code int, ok bool) {
	if err == nil {
		return 0, true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// SubprocessError means the external binary could not be started at all, as
// opposed to running and reporting a failure.
type SubprocessError struct {
	Command string
	Err     error
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("could not run %s: %v", e.Command, e.Err)
}

func (e *SubprocessError) Unwrap() error {
	return e.Err
}

// Classify wraps a start failure of c in a SubprocessError and returns exit
// errors and nil unchanged.
func Classify(c *exec.Cmd, err error) error {
	if _, ok := ExitCode(err); ok {
		return err
	}
	return &SubprocessError{Command: ToString(c), Err: err}
}

// Stderr returns the trimmed stderr captured in an *exec.ExitError, if any.
func Stderr(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return strings.TrimSpace(string(exitErr.Stderr))
	}
	return ""
}
