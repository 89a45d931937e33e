// Package strutil provides additional string manipulation functions.
package strutil

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Limit truncates a string to a display width, accounting for ANSI codes and
// wide runes. An ellipsis replaces the last visible cell when truncated.
func Limit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return lipgloss.NewStyle().MaxWidth(width-1).Render(s) + "…"
}

// Repeat returns a string consisting of count copies of s.
// Unlike strings.Repeat, it returns an empty string if count is negative.
func Repeat(s string, count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat(s, count)
}

// Deref returns the string a pointer refers to, or fallback when it is nil.
func Deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
