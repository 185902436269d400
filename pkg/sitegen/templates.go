package sitegen

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/passport-ui/passport/pkg/breadcrumb"
	"github.com/passport-ui/passport/pkg/navigation"
	"github.com/passport-ui/passport/pkg/registry"
)

//go:embed templates/*.html
var templateFS embed.FS

// notFoundKind selects the 404 template. It is never a Page.Kind.
const notFoundKind Kind = "notfound"

type templateSet struct {
	byKind map[Kind]*template.Template
}

// view is the data every template executes against.
type view struct {
	Lang        string
	SiteName    string
	Canonical   string
	RequestPath string
	Page        *Page
	Nav         navigation.Groups
}

func loadTemplates(q *registry.QueryService) (*templateSet, error) {
	funcs := template.FuncMap{
		"categoryLabel": q.CategoryLabel,
		"componentHref": func(category, slug string) string {
			return "/" + category + "/" + slug
		},
		"last": func(i int, crumbs []breadcrumb.Crumb) bool {
			return i == len(crumbs)-1
		},
	}

	set := &templateSet{byKind: make(map[Kind]*template.Template)}
	for _, kind := range []Kind{KindHome, KindPage, KindCategory, KindComponent, notFoundKind} {
		t, err := template.New(string(kind)).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+string(kind)+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", kind, err)
		}
		set.byKind[kind] = t
	}
	return set, nil
}

func (s *templateSet) execute(w io.Writer, kind Kind, v *view) error {
	t, ok := s.byKind[kind]
	if !ok {
		return fmt.Errorf("no template for page kind %q", kind)
	}
	if err := t.ExecuteTemplate(w, "layout", v); err != nil {
		return fmt.Errorf("failed to render %s page: %w", kind, err)
	}
	return nil
}

// Render writes the HTML document for page.
func (g *Generator) Render(w io.Writer, page *Page) error {
	return g.templates.execute(w, page.Kind, g.view(page, page.Path))
}

// RenderNotFound writes the 404 document for a request to path.
func (g *Generator) RenderNotFound(w io.Writer, path string) error {
	page := &Page{
		Path:        path,
		Title:       "Page not found",
		Breadcrumbs: g.site.Crumbs.For(path),
	}
	return g.templates.execute(w, notFoundKind, g.view(page, path))
}

func (g *Generator) view(page *Page, requestPath string) *view {
	v := &view{
		Lang:        g.site.Profile.LocaleTag().String(),
		SiteName:    g.site.Profile.Name,
		RequestPath: requestPath,
		Page:        page,
		Nav:         g.site.Navigation(""),
	}
	if g.site.Profile.BaseURL != "" && page.Kind != "" {
		v.Canonical = g.site.Profile.URL(page.Path)
	}
	return v
}
