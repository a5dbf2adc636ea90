package app

import (
	"errors"
	"fmt"

	"harbomux/bootstrap"
	"harbomux/log"
	"harbomux/session"
	"harbomux/session/tmux"
)

// harbour brings the user into the managed session from wherever they are:
//
//   - inside it already: nothing to do
//   - inside some other tmux: detach from it and run harbour again outside
//   - in a bare shell with the server up: attach
//   - in a bare shell with no server: launch it in the background
func (d *Dispatcher) harbour() error {
	ctx := d.deps.Classifier.Classify()
	log.InfoLog.Printf("harbour in %s context", ctx)

	switch ctx {
	case session.Nested:
		fmt.Fprintln(d.deps.Stdout, "Already in harbomux!")
		return nil

	case session.PlainMultiplexer:
		line := bootstrap.VerbCommandLine(d.deps.Executable, verbHarbour)
		if err := d.deps.Plain.DetachClient(line); err != nil {
			return launchError("detach from tmux", err)
		}
		return nil
	}

	running, err := d.deps.Server.IsRunning()
	if err != nil {
		return err
	}
	if running {
		code, err := d.deps.Server.Attach()
		if err != nil {
			return launchError("attach", err)
		}
		d.exitCode = code
		return nil
	}

	if err := d.deps.Handshake.Launch(); err != nil {
		return err
	}
	fmt.Fprintf(d.deps.Stdout, "Not in a harbomux session. Started %q on server %q; run %s again to attach.\n",
		d.deps.Config.SessionName, d.deps.Server.Label(), bootstrap.VerbCommandLine("harbomux", verbHarbour))
	return nil
}

// launchError wraps failures tmux reported. A binary that could not be run
// at all is passed through unchanged.
func launchError(stage string, err error) error {
	var cmdErr *tmux.CommandError
	if errors.As(err, &cmdErr) {
		return &bootstrap.LaunchError{Stage: stage, Err: err}
	}
	return err
}
