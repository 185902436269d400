package site

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/passport-ui/passport/pkg/breadcrumb"
	"github.com/passport-ui/passport/pkg/navigation"
	"github.com/passport-ui/passport/pkg/registry"
)

// Site is one fully loaded documentation site. Nothing in it changes after
// Load returns; reloading produces a new Site.
type Site struct {
	Profile *Profile
	Query   *registry.QueryService
	Nav     navigation.Config
	Crumbs  *breadcrumb.Deriver
}

// LoadOptions tunes Load.
type LoadOptions struct {
	// BreadcrumbCacheSize is passed to breadcrumb.Config.CacheSize.
	BreadcrumbCacheSize int
}

// LoadDir loads the site rooted at dir on disk.
func LoadDir(dir string, opts LoadOptions) (*Site, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open site directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site path %s is not a directory", dir)
	}
	return Load(os.DirFS(dir), opts)
}

// Load reads site.yaml from fsys, assembles the registry from the
// definition files it names and builds the navigation and breadcrumb layers.
func Load(fsys fs.FS, opts LoadOptions) (*Site, error) {
	data, err := fs.ReadFile(fsys, ProfileFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ProfileFile, err)
	}
	profile, err := LoadProfile(data)
	if err != nil {
		return nil, err
	}

	defs, err := registry.LoadDefinitions(fsys, profile.Definitions)
	if err != nil {
		return nil, fmt.Errorf("site %q: %w", profile.Name, err)
	}
	return Assemble(profile, defs, opts)
}

// Assemble builds a Site from an already parsed profile and definition list.
func Assemble(profile *Profile, defs []registry.Definition, opts LoadOptions) (*Site, error) {
	reg, idx, err := registry.Assemble(profile.Name, profile.Version, profile.Categories, defs)
	if err != nil {
		return nil, fmt.Errorf("site %q: %w", profile.Name, err)
	}
	query := registry.NewQueryService(reg, idx)

	nav, err := profile.NavigationConfig()
	if err != nil {
		return nil, fmt.Errorf("site %q: %w", profile.Name, err)
	}
	if err := canonicalizeNav(&nav, query); err != nil {
		return nil, fmt.Errorf("site %q: %w", profile.Name, err)
	}

	crumbs := breadcrumb.New(breadcrumb.Config{
		Home:      profile.Home,
		Pages:     profile.Pages,
		CacheSize: opts.BreadcrumbCacheSize,
	}, query)

	return &Site{Profile: profile, Query: query, Nav: nav, Crumbs: crumbs}, nil
}

// canonicalizeNav rewrites alias category keys in the navigation config to
// canonical names. It rejects categories the registry does not know and
// categories keyed twice under different spellings.
func canonicalizeNav(nav *navigation.Config, q *registry.QueryService) error {
	resolve := func(name string) (string, error) {
		cat, ok := q.Category(name)
		if !ok {
			return "", fmt.Errorf("navigation references unknown category %q", name)
		}
		return cat.Name, nil
	}

	for i, name := range nav.CategoryOrder {
		canonical, err := resolve(name)
		if err != nil {
			return err
		}
		nav.CategoryOrder[i] = canonical
	}

	order := make(map[string][]string, len(nav.ComponentOrder))
	for name, names := range nav.ComponentOrder {
		canonical, err := resolve(name)
		if err != nil {
			return err
		}
		if _, dup := order[canonical]; dup {
			return fmt.Errorf("navigation.component_order lists category %q more than once", canonical)
		}
		order[canonical] = names
	}
	nav.ComponentOrder = order

	cmps := make(map[string]navigation.CompareFunc, len(nav.Comparators))
	for name, cmp := range nav.Comparators {
		canonical, err := resolve(name)
		if err != nil {
			return err
		}
		if _, dup := cmps[canonical]; dup {
			return fmt.Errorf("navigation.comparators lists category %q more than once", canonical)
		}
		cmps[canonical] = cmp
	}
	nav.Comparators = cmps
	return nil
}

// Navigation returns the sorted, optionally filtered navigation tree of
// complete definitions.
func (s *Site) Navigation(search string) navigation.Groups {
	return navigation.SortAndFilter(s.Nav, s.Query.Navigable(), search)
}

// CategoryNames returns canonical category names in navigation order.
func (s *Site) CategoryNames() []string {
	cats := s.Query.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return navigation.SortCategories(s.Nav, names)
}
