package catalog

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleDocument = `
# Awesome-Selfhosted

## Table of contents

- [Software](#software)
- [License](#license)

## Software

### [Category 1]
- [App 1](https://app1.com) - Description 1. ` + "`Python`" + ` [MIT]
- [App 2](https://app2.com) - Description 2 with Docker (hub.docker.com/r/user/app2).

### Category 2
- [App 3](https://app3.com/dockerfile) - Description 3. ` + "`Go`" + ` [Apache]
- this line is broken

## License

- [Hidden](https://hidden.example) - Never parsed.
`

func TestParseScenario(t *testing.T) {
	p := NewParser(nil)
	apps, err := p.Parse(context.Background(), "### Cat\n- [A](http://a.com) - Desc with Docker support.\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("got %d applications, want 1", len(apps))
	}
	want := Application{
		Name:          "A",
		Description:   "Desc with Docker support",
		Category:      "Cat",
		DockerReady:   true,
		RepositoryURL: ptr("http://a.com"),
	}
	if !reflect.DeepEqual(apps[0], want) {
		t.Errorf("app = %+v, want %+v", apps[0], want)
	}
}

func TestParseDocument(t *testing.T) {
	p := NewParser(nil)
	apps, err := p.Parse(context.Background(), sampleDocument)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("got %d applications, want 3: %+v", len(apps), apps)
	}

	byName := map[string]Application{}
	for _, a := range apps {
		byName[a.Name] = a
	}

	app1 := byName["App 1"]
	if app1.Category != "Category 1" || app1.LanguageOr("") != "Python" || app1.LicenseOr("") != "MIT" || app1.DockerReady {
		t.Errorf("App 1 = %+v", app1)
	}

	app2 := byName["App 2"]
	if !app2.DockerReady || app2.Image() != "https://hub.docker.com/r/user/app2" {
		t.Errorf("App 2 = %+v", app2)
	}

	app3 := byName["App 3"]
	if !app3.DockerReady || app3.Image() != "https://app3.com/dockerfile" || app3.Category != "Category 2" {
		t.Errorf("App 3 = %+v", app3)
	}
	if _, ok := byName["Hidden"]; ok {
		t.Error("entries in the license section must be ignored")
	}

	if got := len(p.Diagnostics()); got != 1 {
		t.Errorf("Diagnostics = %v, want exactly the broken line", p.Diagnostics())
	}

	cats := p.Categories()
	if len(cats["Category 1"]) != 2 || len(cats["Category 2"]) != 1 {
		t.Errorf("Categories = %v", cats)
	}
	for _, a := range apps {
		if a.DeploymentGuide != nil {
			t.Errorf("%s: DeploymentGuide should be nil", a.Name)
		}
		if a.DockerURL != nil && !a.DockerReady {
			t.Errorf("%s: DockerURL without DockerReady", a.Name)
		}
	}
}

func TestParseEntryBeforeCategory(t *testing.T) {
	p := NewParser(nil)
	apps, err := p.Parse(context.Background(), "- [Orphan](https://o.example) - No category yet.\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(apps) != 0 {
		t.Errorf("got %d applications, want 0", len(apps))
	}
	diags := p.Diagnostics()
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "before any category") {
		t.Errorf("Diagnostics = %v, want one orphan warning", diags)
	}
	if diags[0].Line != 1 {
		t.Errorf("diagnostic line = %d, want 1", diags[0].Line)
	}
}

func TestParseEmptyCategoryTitle(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"BareHeading", "### Named\n##\n- [A](https://a.example) - Desc\n"},
		{"EmptyBrackets", "### Named\n### []\n- [A](https://a.example) - Desc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(nil)
			apps, err := p.Parse(context.Background(), tt.doc)
			if err != nil {
				t.Fatal(err)
			}
			if len(apps) != 0 {
				t.Errorf("apps = %+v, want none under an empty category", apps)
			}
			diags := p.Diagnostics()
			if len(diags) != 1 || !strings.Contains(diags[0].Message, "before any category") || diags[0].Line != 3 {
				t.Errorf("Diagnostics = %v, want one orphan warning on line 3", diags)
			}
			if got := p.Categories(); len(got) != 0 {
				t.Errorf("Categories() = %v, want none", got)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	p := NewParser(nil)
	ctx := context.Background()

	first, err := p.Parse(ctx, sampleDocument)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Parse(ctx, "### Other\n- [Different](https://d.example) - Ignored\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(first) == 0 || &first[0] != &second[0] || len(first) != len(second) {
		t.Error("second Parse without Reset must return the stored slice")
	}

	p.Reset()
	if len(p.Diagnostics()) != 0 || len(p.Categories()) != 0 {
		t.Error("Reset must clear diagnostics and categories")
	}
	third, err := p.Parse(ctx, sampleDocument)
	if err != nil {
		t.Fatal(err)
	}
	if &third[0] == &first[0] {
		t.Error("Parse after Reset must build a new slice")
	}
	if !reflect.DeepEqual(first, third) {
		t.Error("Parse after Reset must reproduce the same result")
	}
}

func TestParseErrors(t *testing.T) {
	t.Run("invalid utf8", func(t *testing.T) {
		_, err := NewParser(nil).Parse(context.Background(), "### Cat\n- [A](http://a.com) - \xff\xfe\n")
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("err = %v, want *ParseError", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewParser(nil).Parse(ctx, sampleDocument)
		var perr *ParseError
		if !errors.As(err, &perr) || !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want *ParseError wrapping context.Canceled", err)
		}
	})

	t.Run("reader failure", func(t *testing.T) {
		_, err := NewParser(nil).ParseReader(context.Background(), failingReader{})
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("err = %v, want *ParseError", err)
		}
	})
}

func TestParseReader(t *testing.T) {
	apps, err := NewParser(nil).ParseReader(context.Background(), strings.NewReader(sampleDocument))
	if err != nil {
		t.Fatal(err)
	}
	if len(apps) != 3 {
		t.Errorf("got %d applications, want 3", len(apps))
	}
}

func TestParseWithProbe(t *testing.T) {
	probe := ProbeFunc(func(ctx context.Context, url string) (bool, error) {
		return url == "https://github.com/go-gitea/gitea", nil
	})
	doc := "### Git\n" +
		"- [Gitea](https://github.com/go-gitea/gitea) - Git service.\n" +
		"- [Other](https://github.com/acme/other) - Plain.\n"

	apps, err := NewParser(NewHeuristic(probe)).Parse(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if apps[0].Image() != "ghcr.io/go-gitea/gitea" || !apps[0].DockerReady {
		t.Errorf("Gitea = %+v", apps[0])
	}
	if apps[1].DockerReady || apps[1].DockerURL != nil {
		t.Errorf("Other = %+v", apps[1])
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}
