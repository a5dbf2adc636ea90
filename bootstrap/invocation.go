package bootstrap

import (
	"strconv"

	"harbomux/cmd"
)

// The hidden self-invocation contract. A freshly created session re-runs the
// harbomux binary as
//
//	<executable> _internal <action> --protocol <n>
//
// The verb is hidden from help and the protocol number lets a newer binary
// refuse a command line written by an older one.
const (
	HiddenVerb      = "_internal"
	ActionSetup     = "setup"
	ProtocolFlag    = "protocol"
	ProtocolVersion = 1
)

// Actions lists every sub-action the hidden verb accepts.
var Actions = []string{ActionSetup}

// Invocation is one self-invocation of the harbomux binary.
type Invocation struct {
	Executable string
	Action     string
	Protocol   int
}

// SetupInvocation is the invocation that runs the one-time setup inside a
// new session.
func SetupInvocation(executable string) Invocation {
	return Invocation{Executable: executable, Action: ActionSetup, Protocol: ProtocolVersion}
}

// Args returns the arguments after the executable.
func (i Invocation) Args() []string {
	return []string{HiddenVerb, i.Action, "--" + ProtocolFlag, strconv.Itoa(i.Protocol)}
}

// CommandLine renders the invocation as a quoted shell command.
func (i Invocation) CommandLine() string {
	return cmd.Join(append([]string{i.Executable}, i.Args()...)...)
}

// VerbCommandLine renders a plain, user-facing verb of the same executable,
// e.g. "<executable> harbour".
func VerbCommandLine(executable, verb string) string {
	return cmd.Join(executable, verb)
}
