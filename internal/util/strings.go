// Package util provides text helpers shared by the API client and the
// terminal renderer.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Truncate shortens s to at most n runes, ending with Ellipsis when cut.
// It does not account for ANSI escape codes or wide characters; use
// TruncateWidth for styled terminal output.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + Ellipsis
}

// TruncateWidth shortens s to at most width terminal cells, keeping ANSI
// escape sequences intact and counting wide characters correctly.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, Ellipsis)
}

// Snippet folds whitespace in s and truncates the result to n runes. It
// is meant for quoting untrusted text in logs and error values.
func Snippet(s string, n int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), n)
}
