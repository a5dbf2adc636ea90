package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic Color Palette

// Status colors - each status has a distinct color and associated icon
var (
	// StatusSuccess indicates ready/complete state
	// Color: Green, Icon: "+"
	StatusSuccess = lipgloss.AdaptiveColor{Light: "#22C55E", Dark: "#22C55E"}

	// StatusWarning indicates needs attention
	// Color: Amber, Icon: "!"
	StatusWarning = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#F59E0B"}

	// StatusError indicates errors/failures
	// Color: Red, Icon: "x"
	StatusError = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#EF4444"}
)

// Text colors
var (
	// Primary is the accent color
	Primary = lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#7D56F4"}

	// TextPrimary is the main text color
	TextPrimary = lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"}

	// TextSecondary is for secondary text (descriptions, labels)
	TextSecondary = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}

	// TextMuted is for hints and subtle text
	TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}
)

// Status icons for accessibility (shape + color)
const (
	IconSuccess = "+"
	IconWarning = "!"
	IconError   = "×"
	IconInfo    = "·"
)

// Spacing constants for consistent layout
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 4
)

// NewRenderer returns a renderer for w. Without color every style renders as
// plain text, which is what pipes, files and NO_COLOR users get.
func NewRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// Theme is the set of styles harbomux prints with, bound to one renderer.
type Theme struct {
	Title       lipgloss.Style
	Heading     lipgloss.Style
	Command     lipgloss.Style
	Description lipgloss.Style
	Label       lipgloss.Style
	Muted       lipgloss.Style
	Success     lipgloss.Style
	Warning     lipgloss.Style
	Error       lipgloss.Style
}

func NewTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Title:       r.NewStyle().Bold(true).Foreground(Primary),
		Heading:     r.NewStyle().Bold(true).Foreground(TextPrimary),
		Command:     r.NewStyle().Foreground(Primary),
		Description: r.NewStyle().Foreground(TextSecondary),
		Label:       r.NewStyle().Foreground(TextSecondary),
		Muted:       r.NewStyle().Foreground(TextMuted),
		Success:     r.NewStyle().Foreground(StatusSuccess),
		Warning:     r.NewStyle().Foreground(StatusWarning),
		Error:       r.NewStyle().Foreground(StatusError),
	}
}
