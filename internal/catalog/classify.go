package catalog

import (
	"regexp"
	"strings"
)

// LineKind tags the result of Classify.
type LineKind int

const (
	Ignorable LineKind = iota
	CategoryHeader
	ApplicationEntry
	SectionBoundary
)

func (k LineKind) String() string {
	switch k {
	case CategoryHeader:
		return "category"
	case ApplicationEntry:
		return "entry"
	case SectionBoundary:
		return "boundary"
	default:
		return "ignorable"
	}
}

// Section identifies a region of the document whose lines are skipped.
type Section int

const (
	NoSection Section = iota
	LicenseSection
	TOCSection
)

// SectionState carries the special-section flags across lines.
type SectionState struct {
	InLicense bool
	InTOC     bool
}

func (s *SectionState) active() bool {
	return s.InLicense || s.InTOC
}

func (s *SectionState) enter(section Section) {
	s.InLicense = section == LicenseSection
	s.InTOC = section == TOCSection
}

// Entry holds the groups captured from an application line.
type Entry struct {
	Name        string
	URL         string
	Description string
	Language    *string
	License     *string
}

// Line is the tagged result of classifying one line. Only the field matching
// Kind is meaningful. Diagnostic is set for lines that looked like entries but
// could not be parsed.
type Line struct {
	Kind       LineKind
	Title      string
	Entry      Entry
	Section    Section
	Diagnostic string
}

var sectionPrefixes = []struct {
	prefix  string
	section Section
}{
	{"# license", LicenseSection},
	{"## license", LicenseSection},
	{"# table of contents", TOCSection},
	{"## table of contents", TOCSection},
}

var (
	categoryRegex = regexp.MustCompile(`^#{2,3}(?:\s+(.*))?$`)
	entryRegex    = regexp.MustCompile(`^\s*-\s*\[([^\]]+)\]\(([^)]+)\)\s*-\s*(.+?)` +
		"(?:\\s*`([^`]+)`)?(?:\\s*`([^`]+)`)?" +
		`(?:\s*\[([^\]]+)\])?(?:\s*\([^)]+\))?\s*$`)
	licenseLineRegex = regexp.MustCompile("^\\s*-\\s*`([^`]+)`\\s*-\\s*\\[([^\\]]+)\\]\\(([^)]+)\\)\\s*$")
	tocLineRegex     = regexp.MustCompile(`^\s*-\s*\[([^\]]+)\]\(#[^)]+\)\s*$`)
)

// Classify decides what one trimmed, non-empty line of the document is.
// state is updated in place when the line enters or leaves a special section.
func Classify(line string, state *SectionState) Line {
	if strings.HasPrefix(line, "#") && state.active() {
		state.enter(NoSection)
	}

	lower := strings.ToLower(line)
	for _, sp := range sectionPrefixes {
		if strings.HasPrefix(lower, sp.prefix) {
			state.enter(sp.section)
			return Line{Kind: SectionBoundary, Section: sp.section}
		}
	}

	if state.active() {
		return Line{Kind: Ignorable}
	}

	if m := categoryRegex.FindStringSubmatch(line); m != nil {
		return Line{Kind: CategoryHeader, Title: cleanTitle(m[1])}
	}

	if m := entryRegex.FindStringSubmatch(line); m != nil {
		return classifyEntry(m)
	}

	if licenseLineRegex.MatchString(line) || tocLineRegex.MatchString(line) {
		return Line{Kind: Ignorable}
	}

	if strings.HasPrefix(strings.TrimSpace(line), "-") && !strings.HasPrefix(strings.TrimSpace(line), "---") {
		return Line{Kind: Ignorable, Diagnostic: "unrecognized list item"}
	}
	return Line{Kind: Ignorable}
}

func classifyEntry(m []string) Line {
	entry := Entry{
		Name:        strings.TrimSpace(m[1]),
		URL:         strings.TrimSpace(m[2]),
		Description: cleanDescription(m[3]),
	}
	if entry.Name == "" || entry.URL == "" {
		return Line{Kind: Ignorable, Diagnostic: "application entry without a name or link"}
	}

	if lang := strings.TrimSpace(m[4]); lang != "" {
		entry.Language = ptr(lang)
	}
	// A bracket tag wins over a second backtick tag.
	if license := strings.TrimSpace(m[6]); license != "" {
		entry.License = ptr(license)
	} else if license := strings.TrimSpace(m[5]); license != "" {
		entry.License = ptr(license)
	}
	return Line{Kind: ApplicationEntry, Entry: entry}
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if strings.HasPrefix(title, "[") && strings.HasSuffix(title, "]") {
		title = strings.TrimSpace(title[1 : len(title)-1])
	}
	return title
}

func cleanDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	desc = strings.TrimSuffix(desc, ".")
	return strings.TrimSpace(desc)
}
