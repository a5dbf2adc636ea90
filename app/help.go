package app

import (
	"fmt"
	"io"

	"harbomux/ui"
)

var helpText = ui.Help{
	Usage: "harbomux <command>",
	Summary: "harbomux keeps one tmux session running on its own server, apart from any " +
		"tmux you run yourself, and gets you into it from wherever you are.",
	Commands: []ui.HelpEntry{
		{Name: verbHarbour, Description: "Attach to the harbour session. Launches it in the background when it is not running, and leaves any other tmux session first."},
		{Name: verbHelp, Description: "Show this text."},
		{Name: verbStart, Description: "Reserved."},
		{Name: verbTest, Description: "Report the detected context, server state and config paths. --copy also copies the report to the clipboard."},
		{Name: verbVersion, Description: "Print the version number."},
	},
	Footer: "New sessions source ~/.config/harbomux/harbomuxrc when it exists. " +
		"Set HARBOMUX_CONFIG_DIR to use another config directory.",
}

func (d *Dispatcher) printHelp(w io.Writer, theme ui.Theme) {
	fmt.Fprint(w, ui.RenderHelp(theme, helpText, d.deps.Width()))
}
