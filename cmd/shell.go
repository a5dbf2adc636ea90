package cmd

import "al.essio.dev/pkg/shellescape"

// Quote returns s as a single POSIX shell word. Words made only of safe
// characters are returned as they are.
func Quote(s string) string {
	return shellescape.Quote(s)
}

// Join quotes each word and joins them with spaces.
func Join(words ...string) string {
	return shellescape.QuoteCommand(words)
}
