// Package breadcrumb derives breadcrumb trails and page titles from request
// paths, using only the static registry and primary navigation pages.
package breadcrumb

import (
	"strings"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/passport-ui/passport/pkg/registry"
)

// DefaultCacheSize bounds the number of memoized paths.
const DefaultCacheSize = 512

// Crumb is one breadcrumb entry.
type Crumb struct {
	Href  string `json:"href" yaml:"href"`
	Label string `json:"label" yaml:"label"`
}

// Home describes the site root. Label is used as the first crumb of every
// nested trail; Title labels the root page itself.
type Home struct {
	Href  string `json:"href" yaml:"href"`
	Label string `json:"label" yaml:"label"`
	Title string `json:"title" yaml:"title"`
}

// Page is one primary navigation page.
type Page struct {
	Href        string `json:"href" yaml:"href"`
	Title       string `json:"title" yaml:"title"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Config configures a Deriver.
type Config struct {
	Home      Home
	Pages     []Page
	CacheSize int // 0 means DefaultCacheSize, negative disables caching
}

// Lookup is the registry surface the deriver needs.
// *registry.QueryService satisfies it.
type Lookup interface {
	IsKnownCategory(name string) bool
	CategoryLabel(name string) string
	ByCategoryAndSlug(category, slug string) (*registry.Definition, bool)
}

// Deriver maps paths to breadcrumb trails. It is safe for concurrent use.
type Deriver struct {
	home   Home
	pages  map[string]Page
	lookup Lookup
	cache  *lru.Cache[string, []Crumb]
}

// New creates a Deriver. Empty Home fields default to "/", "Home" and the label.
func New(cfg Config, lookup Lookup) *Deriver {
	home := cfg.Home
	if home.Href == "" {
		home.Href = "/"
	}
	if home.Label == "" {
		home.Label = "Home"
	}
	if home.Title == "" {
		home.Title = home.Label
	}

	pages := make(map[string]Page, len(cfg.Pages))
	for _, p := range cfg.Pages {
		href := trimTrailingSlash(p.Href)
		if _, dup := pages[href]; !dup {
			pages[href] = p
		}
	}

	d := &Deriver{home: home, pages: pages, lookup: lookup}

	size := cfg.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		// lru.New only fails for non-positive sizes.
		d.cache, _ = lru.New[string, []Crumb](size)
	}
	return d
}

// For returns the breadcrumb trail for path. It never fails: paths that
// match nothing resolve through the generic segment fallback.
func (d *Deriver) For(path string) []Crumb {
	path = trimTrailingSlash(path)

	if d.cache != nil {
		if crumbs, ok := d.cache.Get(path); ok {
			return clone(crumbs)
		}
	}

	crumbs := d.derive(path)
	if d.cache != nil {
		d.cache.Add(path, crumbs)
	}
	return clone(crumbs)
}

// Title returns the page title for path: the last label of For(path).
func (d *Deriver) Title(path string) string {
	crumbs := d.For(path)
	return crumbs[len(crumbs)-1].Label
}

// CacheLen reports how many trails are memoized.
func (d *Deriver) CacheLen() int {
	if d.cache == nil {
		return 0
	}
	return d.cache.Len()
}

func (d *Deriver) homeCrumb() Crumb {
	return Crumb{Href: d.home.Href, Label: d.home.Label}
}

func (d *Deriver) derive(path string) []Crumb {
	segments := splitSegments(path)
	if len(segments) == 0 {
		return []Crumb{{Href: d.home.Href, Label: d.home.Title}}
	}

	if page, ok := d.pages[path]; ok {
		return []Crumb{d.homeCrumb(), {Href: page.Href, Label: page.Title}}
	}

	if d.lookup != nil && d.lookup.IsKnownCategory(segments[0]) {
		category := segments[0]
		categoryCrumb := Crumb{Href: "/" + category, Label: d.lookup.CategoryLabel(category)}

		switch len(segments) {
		case 1:
			return []Crumb{d.homeCrumb(), categoryCrumb}
		case 2:
			if def, ok := d.lookup.ByCategoryAndSlug(category, segments[1]); ok {
				return []Crumb{
					d.homeCrumb(),
					categoryCrumb,
					{Href: "/" + category + "/" + segments[1], Label: def.Name},
				}
			}
		}
	}

	return d.generic(segments)
}

func (d *Deriver) generic(segments []string) []Crumb {
	crumbs := make([]Crumb, 0, len(segments)+1)
	crumbs = append(crumbs, d.homeCrumb())

	var href strings.Builder
	for i, seg := range segments {
		href.WriteByte('/')
		href.WriteString(seg)
		h := href.String()
		if i < len(segments)-1 {
			h += "/"
		}
		crumbs = append(crumbs, Crumb{Href: h, Label: SegmentLabel(seg)})
	}
	return crumbs
}

// SegmentLabel turns a path segment into a label: first letter upper-cased,
// hyphens replaced by spaces.
func SegmentLabel(seg string) string {
	seg = strings.ReplaceAll(seg, "-", " ")
	r, size := utf8.DecodeRuneInString(seg)
	if r == utf8.RuneError {
		return seg
	}
	return string(unicode.ToUpper(r)) + seg[size:]
}

// trimTrailingSlash strips one trailing slash, keeping "/" intact.
func trimTrailingSlash(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}
	return path
}

func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

func clone(crumbs []Crumb) []Crumb {
	return append([]Crumb(nil), crumbs...)
}
