package bootstrap

import (
	"fmt"

	"harbomux/sentinel"
)

// LaunchError means creating or attaching to the managed session failed in a
// way tmux reported. It is shown to the user and never retried.
type LaunchError struct {
	Stage string
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Stage, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// SetupRejectedError means the hidden setup action ran when it should not
// have: the sentinel was not armed, setup already ran, or the command line
// came from an incompatible binary. Nothing was changed.
type SetupRejectedError struct {
	Observed sentinel.State
	Reason   string
}

func (e *SetupRejectedError) Error() string {
	return "setup rejected: " + e.Reason
}
