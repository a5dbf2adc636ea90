package app

import (
	"errors"

	"harbomux/bootstrap"
)

// UsageError means the command line itself was wrong. Verb is set when the
// verb was not recognized.
type UsageError struct {
	Verb    string
	Message string
}

func (e *UsageError) Error() string {
	if e.Verb != "" {
		return "[" + e.Verb + "] is not a recognized command!"
	}
	return e.Message
}

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return exitUsage
	}
	// A rejected setup is a guard against misuse, not a failure of this run.
	var rejected *bootstrap.SetupRejectedError
	if errors.As(err, &rejected) {
		return exitOK
	}
	return exitFailure
}
