package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// minTextWidth keeps descriptions readable in very narrow terminals.
const minTextWidth = 20

// HelpEntry is one line of the command table.
type HelpEntry struct {
	Name        string
	Description string
}

// Help is the static usage text.
type Help struct {
	Usage    string
	Summary  string
	Commands []HelpEntry
	Footer   string
}

// RenderHelp lays out h for a terminal width columns wide. Descriptions are
// word-wrapped and their continuation lines aligned under the first one.
func RenderHelp(theme Theme, h Help, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Usage:"))
	b.WriteString(" ")
	b.WriteString(h.Usage)
	b.WriteString("\n")
	if h.Summary != "" {
		b.WriteString("\n")
		b.WriteString(wordwrap.String(h.Summary, max(width, minTextWidth)))
		b.WriteString("\n")
	}

	if len(h.Commands) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.Heading.Render("Commands:"))
		b.WriteString("\n")

		nameWidth := 0
		for _, c := range h.Commands {
			nameWidth = max(nameWidth, runewidth.StringWidth(c.Name))
		}
		column := SpaceSM + nameWidth + SpaceSM
		textWidth := max(width-column, minTextWidth)

		for _, c := range h.Commands {
			lines := strings.Split(wordwrap.String(c.Description, textWidth), "\n")
			b.WriteString(strings.Repeat(" ", SpaceSM))
			b.WriteString(theme.Command.Render(runewidth.FillRight(c.Name, nameWidth)))
			b.WriteString(strings.Repeat(" ", SpaceSM))
			b.WriteString(theme.Description.Render(lines[0]))
			b.WriteString("\n")
			// Styled line by line: lipgloss pads a multi-line block to its
			// widest line.
			for i := 1; i < len(lines); i++ {
				b.WriteString(indent.String(theme.Description.Render(lines[i]), uint(column)))
				b.WriteString("\n")
			}
		}
	}

	if h.Footer != "" {
		b.WriteString("\n")
		b.WriteString(theme.Muted.Render(wordwrap.String(h.Footer, max(width, minTextWidth))))
		b.WriteString("\n")
	}
	return b.String()
}
