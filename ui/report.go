package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Level marks how a diagnostic value should be read.
type Level int

const (
	LevelInfo Level = iota
	LevelOK
	LevelWarn
	LevelFail
)

func (l Level) icon() string {
	switch l {
	case LevelOK:
		return IconSuccess
	case LevelWarn:
		return IconWarning
	case LevelFail:
		return IconError
	default:
		return IconInfo
	}
}

// ReportRow is one label/value pair of the diagnostic report.
type ReportRow struct {
	Label string
	Value string
	Level Level
}

// Report is what the test command prints.
type Report struct {
	Title string
	Rows  []ReportRow
}

const ellipsis = "…"

// Render lays the report out for a terminal width columns wide. Values that
// would wrap are truncated.
func (r Report) Render(theme Theme, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	labelWidth := r.labelWidth()
	// icon, space, label, two spaces
	valueWidth := max(width-runewidth.StringWidth(IconInfo)-SpaceXS-labelWidth-SpaceSM, minTextWidth)

	var b strings.Builder
	if r.Title != "" {
		b.WriteString(theme.Title.Render(r.Title))
		b.WriteString("\n")
	}
	for _, row := range r.Rows {
		b.WriteString(levelStyle(theme, row.Level).Render(row.Level.icon()))
		b.WriteString(strings.Repeat(" ", SpaceXS))
		b.WriteString(theme.Label.Render(runewidth.FillRight(row.Label, labelWidth)))
		b.WriteString(strings.Repeat(" ", SpaceSM))
		b.WriteString(runewidth.Truncate(singleLine(row.Value), valueWidth, ellipsis))
		b.WriteString("\n")
	}
	return b.String()
}

// Plain renders the report without styling or truncation, for the clipboard.
func (r Report) Plain() string {
	labelWidth := r.labelWidth()
	var b strings.Builder
	if r.Title != "" {
		b.WriteString(r.Title)
		b.WriteString("\n")
	}
	for _, row := range r.Rows {
		b.WriteString(runewidth.FillRight(row.Label, labelWidth))
		b.WriteString(strings.Repeat(" ", SpaceSM))
		b.WriteString(row.Value)
		b.WriteString("\n")
	}
	return b.String()
}

func (r Report) labelWidth() int {
	w := 0
	for _, row := range r.Rows {
		w = max(w, runewidth.StringWidth(row.Label))
	}
	return w
}

func levelStyle(theme Theme, l Level) lipgloss.Style {
	switch l {
	case LevelOK:
		return theme.Success
	case LevelWarn:
		return theme.Warning
	case LevelFail:
		return theme.Error
	default:
		return theme.Muted
	}
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
