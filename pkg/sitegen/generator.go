// Package sitegen turns a loaded site into static documentation pages and
// serves them for local preview.
package sitegen

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/passport-ui/passport/pkg/breadcrumb"
	"github.com/passport-ui/passport/pkg/navigation"
	"github.com/passport-ui/passport/pkg/registry"
	"github.com/passport-ui/passport/pkg/site"
)

// ErrNotFound is returned by Resolve for paths that have no page.
var ErrNotFound = errors.New("page not found")

// Kind classifies a generated page.
type Kind string

const (
	KindHome      Kind = "home"
	KindPage      Kind = "page"
	KindCategory  Kind = "category"
	KindComponent Kind = "component"
)

// Page is one generated page.
type Page struct {
	Path        string               `json:"path"`
	Kind        Kind                 `json:"kind"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Breadcrumbs []breadcrumb.Crumb   `json:"breadcrumbs"`
	Definition  *registry.Definition `json:"definition,omitempty"`
	Groups      navigation.Groups    `json:"groups,omitempty"`
}

// Generator enumerates and renders the pages of one site.
// A Generator never mutates its site and is safe for concurrent use.
type Generator struct {
	site      *site.Site
	logger    *slog.Logger
	templates *templateSet
}

// New creates a generator for s. A nil logger means slog.Default().
func New(s *site.Site, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := loadTemplates(s.Query)
	if err != nil {
		return nil, err
	}
	return &Generator{site: s, logger: logger, templates: tmpl}, nil
}

// Site returns the site the generator renders.
func (g *Generator) Site() *site.Site {
	return g.site
}

// Pages enumerates every page of the site: the root, the primary pages,
// one listing per category and one page per complete (category, slug) pair.
// Categories and components follow navigation order.
func (g *Generator) Pages() []*Page {
	categories := g.site.CategoryNames()
	pages := make([]*Page, 0, 1+len(g.site.Profile.Pages)+len(categories)+len(g.site.Query.AllSlugs()))

	pages = append(pages, g.homePage())
	for _, p := range g.site.Profile.Pages {
		pages = append(pages, g.primaryPage(p))
	}
	for _, name := range categories {
		cat, _ := g.site.Query.Category(name)
		pages = append(pages, g.categoryPage(cat))
	}
	for _, name := range categories {
		for _, def := range g.categoryGroup(name).Definitions {
			d, _ := g.site.Query.ByCategoryAndSlug(name, def.Slug)
			pages = append(pages, g.componentPage(name, d))
		}
	}
	return pages
}

// Resolve returns the page served at path. Category aliases resolve to the
// canonical page. Unknown paths, incomplete definitions and paths nested
// below a component return an error wrapping ErrNotFound.
func (g *Generator) Resolve(path string) (*Page, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return g.homePage(), nil
	}

	joined := "/" + strings.Join(segments, "/")
	for _, p := range g.site.Profile.Pages {
		if strings.TrimSuffix(p.Href, "/") == joined {
			return g.primaryPage(p), nil
		}
	}

	cat, ok := g.site.Query.Category(segments[0])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	switch len(segments) {
	case 1:
		return g.categoryPage(cat), nil
	case 2:
		if def, ok := g.site.Query.ByCategoryAndSlug(cat.Name, segments[1]); ok {
			return g.componentPage(cat.Name, def), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

func (g *Generator) homePage() *Page {
	return &Page{
		Path:        "/",
		Kind:        KindHome,
		Title:       g.site.Crumbs.Title("/"),
		Description: g.site.Profile.Description,
		Breadcrumbs: g.site.Crumbs.For("/"),
		Groups:      g.site.Navigation(""),
	}
}

func (g *Generator) primaryPage(p breadcrumb.Page) *Page {
	path := strings.TrimSuffix(p.Href, "/")
	return &Page{
		Path:        path,
		Kind:        KindPage,
		Title:       g.site.Crumbs.Title(path),
		Description: p.Description,
		Breadcrumbs: g.site.Crumbs.For(path),
	}
}

func (g *Generator) categoryPage(cat *registry.Category) *Page {
	path := "/" + cat.Name
	return &Page{
		Path:        path,
		Kind:        KindCategory,
		Title:       g.site.Crumbs.Title(path),
		Description: cat.Description,
		Breadcrumbs: g.site.Crumbs.For(path),
		Groups:      navigation.Groups{g.categoryGroup(cat.Name)},
	}
}

func (g *Generator) componentPage(category string, def *registry.Definition) *Page {
	d := *def
	path := "/" + category + "/" + d.Slug
	return &Page{
		Path:        path,
		Kind:        KindComponent,
		Title:       g.site.Crumbs.Title(path),
		Description: d.Description,
		Breadcrumbs: g.site.Crumbs.For(path),
		Definition:  &d,
	}
}

// categoryGroup returns the sorted listing of one category.
func (g *Generator) categoryGroup(category string) navigation.Group {
	groups := navigation.SortAndFilter(g.site.Nav, map[string][]registry.Definition{
		category: g.site.Query.AllByCategory(category),
	}, "")
	return groups[0]
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}
