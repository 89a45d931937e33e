package catalog

import (
	"EasyDockerDeploy/internal/logger"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("document is not valid UTF-8")

// cancelCheckInterval is how many lines are parsed between context checks.
const cancelCheckInterval = 256

// Diagnostic records a line that was skipped with a warning.
type Diagnostic struct {
	Line    int
	Text    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %q", d.Line, d.Message, d.Text)
}

// Parser turns a markdown document into Applications in a single pass.
// Results are kept until Reset, so a second Parse returns the same slice.
type Parser struct {
	heuristic *Heuristic

	parsed      bool
	apps        []Application
	categories  map[string][]Application
	diagnostics []Diagnostic
}

// NewParser creates a parser. A nil heuristic uses keyword matching without
// repository probes.
func NewParser(h *Heuristic) *Parser {
	if h == nil {
		h = NewHeuristic(nil)
	}
	return &Parser{
		heuristic:  h,
		categories: make(map[string][]Application),
	}
}

// Reset discards stored results, categories and diagnostics.
func (p *Parser) Reset() {
	p.parsed = false
	p.apps = nil
	p.categories = make(map[string][]Application)
	p.diagnostics = nil
}

// Parse classifies every line of document and returns the applications found.
// If the parser already holds results they are returned unchanged.
func (p *Parser) Parse(ctx context.Context, document string) ([]Application, error) {
	if p.parsed {
		return p.apps, nil
	}
	if !utf8.ValidString(document) {
		return nil, &ParseError{Err: errInvalidUTF8}
	}

	var (
		apps       = make([]Application, 0)
		categories = make(map[string][]Application)
		diags      []Diagnostic
		state      SectionState
		category   string
	)

	for i, raw := range strings.Split(document, "\n") {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &ParseError{Line: i + 1, Err: err}
			}
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		result := Classify(line, &state)
		if result.Diagnostic != "" {
			diags = append(diags, Diagnostic{Line: i + 1, Text: line, Message: result.Diagnostic})
		}

		switch result.Kind {
		case CategoryHeader:
			category = result.Title

		case ApplicationEntry:
			// An empty heading title leaves the entries below it without a category.
			if category == "" {
				diags = append(diags, Diagnostic{Line: i + 1, Text: line, Message: "application entry before any category"})
				continue
			}
			app := p.newApplication(ctx, category, result.Entry)
			apps = append(apps, app)
			categories[category] = append(categories[category], app)
		}
	}

	p.apps = apps
	p.categories = categories
	p.diagnostics = diags
	p.parsed = true

	for _, d := range diags {
		logger.Debug(ctx, "Skipped %s", d)
	}
	if len(diags) > 0 {
		logger.Warn(ctx, "Skipped {{_Highlight_}}%d{{|-|}} malformed lines while parsing the application list.", len(diags))
	}
	return apps, nil
}

// ParseReader reads the whole document from r and parses it.
func (p *Parser) ParseReader(ctx context.Context, r io.Reader) ([]Application, error) {
	if p.parsed {
		return p.apps, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return p.Parse(ctx, string(data))
}

func (p *Parser) newApplication(ctx context.Context, category string, e Entry) Application {
	repo := ptr(e.URL)
	ready, dockerURL := p.heuristic.Classify(ctx, e.Description, repo)
	return Application{
		Name:          e.Name,
		Description:   e.Description,
		Category:      category,
		Language:      e.Language,
		LicenseType:   e.License,
		DockerReady:   ready,
		DockerURL:     dockerURL,
		RepositoryURL: repo,
	}
}

// Categories returns the applications of the last parse grouped by category.
func (p *Parser) Categories() map[string][]Application {
	out := make(map[string][]Application, len(p.categories))
	for k, v := range p.categories {
		out[k] = v
	}
	return out
}

// Diagnostics returns the warnings recorded during the last parse.
func (p *Parser) Diagnostics() []Diagnostic {
	return p.diagnostics
}
