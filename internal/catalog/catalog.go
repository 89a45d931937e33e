package catalog

import (
	"sort"
	"strings"
)

// Catalog is an immutable snapshot of parsed applications.
type Catalog struct {
	apps   []Application
	byName map[string]Application
}

// CategoryCount is a category name and how many applications it holds.
type CategoryCount struct {
	Name  string
	Count int
}

// NewCatalog builds a snapshot of apps. When names repeat, Get returns the
// last one.
func NewCatalog(apps []Application) *Catalog {
	c := &Catalog{
		apps:   make([]Application, len(apps)),
		byName: make(map[string]Application, len(apps)),
	}
	copy(c.apps, apps)
	for _, app := range c.apps {
		c.byName[app.Name] = app
	}
	return c
}

// All returns every application in document order.
func (c *Catalog) All() []Application {
	return c.filter(func(Application) bool { return true })
}

// Len returns the number of applications.
func (c *Catalog) Len() int {
	return len(c.apps)
}

// Get looks an application up by exact name, falling back to a
// case-insensitive match.
func (c *Catalog) Get(name string) (Application, bool) {
	if app, ok := c.byName[name]; ok {
		return app, true
	}
	var found Application
	ok := false
	for _, app := range c.apps {
		if strings.EqualFold(app.Name, name) {
			found, ok = app, true
		}
	}
	return found, ok
}

// Search matches query case-insensitively as a substring of the name,
// description, language or category.
func (c *Catalog) Search(query string) []Application {
	q := strings.ToLower(query)
	return c.filter(func(app Application) bool {
		for _, field := range []string{app.Name, app.Description, app.LanguageOr(""), app.Category} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	})
}

// ByCategory returns the applications whose category equals name, ignoring case.
func (c *Catalog) ByCategory(name string) []Application {
	return c.filter(func(app Application) bool {
		return strings.EqualFold(app.Category, name)
	})
}

// DockerReadyOnly returns the applications marked Docker-ready.
func (c *Catalog) DockerReadyOnly() []Application {
	return c.filter(func(app Application) bool {
		return app.DockerReady
	})
}

// Categories returns every category with its application count, sorted by name.
func (c *Catalog) Categories() []CategoryCount {
	counts := make(map[string]int)
	for _, app := range c.apps {
		counts[app.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if li != lj {
			return li < lj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (c *Catalog) filter(keep func(Application) bool) []Application {
	out := make([]Application, 0)
	for _, app := range c.apps {
		if keep(app) {
			out = append(out, app)
		}
	}
	return out
}
