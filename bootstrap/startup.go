package bootstrap

import (
	"strings"

	"harbomux/cmd"
)

// StartupCommand builds the shell line the first pane of a new session runs:
// source the rc file when there is one, run the setup invocation and eval
// what it prints (that is how setup advances this shell's own sentinel), then
// hand the pane over to an interactive shell.
//
// rcPath is only sourced when rcExists is true; otherwise the fragment is
// left out entirely.
func StartupCommand(inv Invocation, rcPath string, rcExists bool, shell string) string {
	var b strings.Builder
	if rcExists && rcPath != "" {
		b.WriteString(". ")
		b.WriteString(cmd.Quote(rcPath))
		b.WriteString("; ")
	}
	b.WriteString(`eval "$(`)
	b.WriteString(inv.CommandLine())
	b.WriteString(`)"; `)
	b.WriteString("exec ")
	if shell != "" {
		b.WriteString(cmd.Quote(shell))
	} else {
		b.WriteString(`"${SHELL:-/bin/sh}"`)
	}
	return b.String()
}
