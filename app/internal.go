package app

import (
	"fmt"
	"strings"

	"harbomux/bootstrap"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// internalCommand is the hidden verb a new session re-invokes the binary
// with. It never shows up in help and has its own closed set of actions.
func (d *Dispatcher) internalCommand() *cobra.Command {
	c := &cobra.Command{
		Use:       bootstrap.HiddenVerb,
		Hidden:    true,
		Args:      cobra.ArbitraryArgs,
		ValidArgs: bootstrap.Actions,
		RunE: func(cmd *cobra.Command, args []string) error {
			want := strings.Join(bootstrap.Actions, ", ")
			if len(args) == 0 {
				return &UsageError{Message: fmt.Sprintf("%s needs an action (one of: %s)", bootstrap.HiddenVerb, want)}
			}
			return &UsageError{Message: fmt.Sprintf("no internal action %q (one of: %s)", args[0], want)}
		},
	}

	var protocol int
	setup := &cobra.Command{
		Use:  bootstrap.ActionSetup,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.deps.Handshake.Setup(protocol, d.deps.Stdout)
		},
	}
	bindProtocolFlag(setup.Flags(), &protocol)
	c.AddCommand(setup)
	return c
}

func bindProtocolFlag(fs *pflag.FlagSet, protocol *int) {
	fs.IntVar(protocol, bootstrap.ProtocolFlag, 0, "version of the self-invocation contract")
}
