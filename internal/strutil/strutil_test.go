package strutil

import (
	"testing"

	"charm.land/lipgloss/v2"
)

func TestLimit(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer description", 8, "a longe…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		got := Limit(tt.input, tt.width)
		if got != tt.want {
			t.Errorf("Limit(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
		if lipgloss.Width(got) > tt.width && tt.width > 0 {
			t.Errorf("Limit(%q, %d) width %d exceeds limit", tt.input, tt.width, lipgloss.Width(got))
		}
	}
}

func TestRepeat(t *testing.T) {
	if Repeat("ab", 3) != "ababab" {
		t.Error("Repeat positive count")
	}
	if Repeat("ab", -1) != "" || Repeat("ab", 0) != "" {
		t.Error("Repeat non-positive count should be empty")
	}
}

func TestDeref(t *testing.T) {
	s := "Go"
	if Deref(&s, "-") != "Go" || Deref(nil, "-") != "-" {
		t.Error("Deref")
	}
}
