package console

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

var (
	// semanticRegex matches {{_content_}} format for semantic tags
	semanticRegex = regexp.MustCompile(`\{\{_([A-Za-z0-9_]+)_\}\}`)

	// directRegex matches {{|content|}} format for direct style codes
	directRegex = regexp.MustCompile(`\{\{\|([A-Za-z0-9_:\-#]+)\|\}\}`)
)

// ExpandTags replaces semantic tags with their direct style tags.
// Unknown semantic tags are removed.
func ExpandTags(text string) string {
	return semanticRegex.ReplaceAllStringFunc(text, func(match string) string {
		content := strings.ToLower(match[3 : len(match)-3])
		return semanticMap[content]
	})
}

// ToANSI converts semantic and direct tags to ANSI escape sequences.
// When stdout is not a terminal every tag is stripped instead.
func ToANSI(text string) string {
	if !isTTYGlobal {
		return Strip(text)
	}

	text = ExpandTags(text)
	return directRegex.ReplaceAllStringFunc(text, func(match string) string {
		return parseStyleCodeToANSI(match[3 : len(match)-3])
	})
}

// Strip removes all semantic and direct tags from text, as well as ANSI escape sequences.
func Strip(text string) string {
	text = semanticRegex.ReplaceAllString(text, "")
	text = directRegex.ReplaceAllString(text, "")
	return ansi.Strip(text)
}

// Parse is the name used by the logger and command handlers for ToANSI.
func Parse(text string) string {
	return ToANSI(text)
}

// Sprintf formats according to a format specifier and returns the string with ANSI codes
func Sprintf(format string, a ...any) string {
	return ToANSI(fmt.Sprintf(format, a...))
}

// Println prints a line with tags converted to ANSI codes
func Println(a ...any) {
	fmt.Println(ToANSI(fmt.Sprint(a...)))
}

// parseStyleCodeToANSI parses the fg:bg:flags format and returns ANSI codes
func parseStyleCodeToANSI(content string) string {
	if content == "-" {
		return CodeReset
	}

	parts := strings.Split(content, ":")
	var codes strings.Builder

	if len(parts) > 0 {
		codes.WriteString(colorCode(parts[0], false))
	}
	if len(parts) > 1 {
		codes.WriteString(colorCode(parts[1], true))
	}
	if len(parts) > 2 {
		for _, flag := range parts[2] {
			codes.WriteString(flagMap[flag])
		}
	}
	return codes.String()
}

func colorCode(name string, background bool) string {
	if name == "" || name == "-" {
		return ""
	}
	name = strings.ToLower(name)

	if !strings.HasPrefix(name, "#") {
		if _, err := strconv.Atoi(name); err != nil {
			key := name
			if background {
				key += "bg"
			}
			return ansiMap[key]
		}
	}

	// Hex and palette index colors go through the detected profile so they
	// degrade on terminals with fewer colors.
	c := preferredProfile.Color(name)
	if c == nil {
		return ""
	}
	return wrapSequence(c.Sequence(background))
}

// wrapSequence ensures a color sequence part is wrapped in CSI delimiters
func wrapSequence(seq string) string {
	if seq == "" {
		return ""
	}
	if strings.HasPrefix(seq, "\x1b[") {
		return seq
	}
	return "\033[" + seq + "m"
}
