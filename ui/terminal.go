package ui

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Width returns the column count of the terminal behind f, or DefaultWidth
// when f is not a terminal.
func Width(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// ColorEnabled reports whether output to f should be styled.
func ColorEnabled(f *os.File) bool {
	if termenv.EnvNoColor() {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
