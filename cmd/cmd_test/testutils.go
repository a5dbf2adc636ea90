package cmd_test

import (
	"os/exec"
)

// MockCmdExec is a cmd.Executor whose behaviour is supplied by the test.
// Nil funcs succeed with no output.
type MockCmdExec struct {
	OutputFunc      func(cmd *exec.Cmd) ([]byte, error)
	InteractiveFunc func(cmd *exec.Cmd) (int, error)
}

func (e MockCmdExec) Output(cmd *exec.Cmd) ([]byte, error) {
	if e.OutputFunc == nil {
		return nil, nil
	}
	return e.OutputFunc(cmd)
}

func (e MockCmdExec) Interactive(cmd *exec.Cmd) (int, error) {
	if e.InteractiveFunc == nil {
		return 0, nil
	}
	return e.InteractiveFunc(cmd)
}

// ExitError builds an *exec.ExitError as returned by a command that ran and
// failed, with stderr attached.
func ExitError(stderr string) *exec.ExitError {
	return &exec.ExitError{Stderr: []byte(stderr)}
}
