// Package site loads documentation site profiles and wires the registry,
// navigation and breadcrumb layers for one site.
package site

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/passport-ui/passport/pkg/breadcrumb"
	"github.com/passport-ui/passport/pkg/navigation"
	"github.com/passport-ui/passport/pkg/registry"
)

// ProfileFile is the profile document name inside a site directory.
const ProfileFile = "site.yaml"

// Profile holds the contents of a site's site.yaml.
type Profile struct {
	Name        string              `yaml:"name"`
	Version     string              `yaml:"version"`
	Description string              `yaml:"description"`
	BaseURL     string              `yaml:"base_url"`
	Locale      string              `yaml:"locale"`
	Home        breadcrumb.Home     `yaml:"home"`
	Pages       []breadcrumb.Page   `yaml:"pages"`
	Categories  []registry.Category `yaml:"categories"`
	Navigation  NavigationProfile   `yaml:"navigation"`
	Definitions []string            `yaml:"definitions"`
}

// NavigationProfile is the serialized form of navigation.Config.
type NavigationProfile struct {
	CategoryOrder  []string            `yaml:"category_order"`
	ComponentOrder map[string][]string `yaml:"component_order"`
	Comparators    map[string]string   `yaml:"comparators"`
}

// LoadProfile parses and validates a site.yaml document.
func LoadProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse site profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks fields the registry does not already check.
func (p *Profile) Validate() error {
	var problems []string

	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if p.BaseURL != "" {
		if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("base_url %q must be an absolute URL", p.BaseURL))
		}
	}
	if p.Locale != "" {
		if _, err := language.Parse(p.Locale); err != nil {
			problems = append(problems, fmt.Sprintf("locale %q: %v", p.Locale, err))
		}
	}
	if len(p.Categories) == 0 {
		problems = append(problems, "at least one category is required")
	}

	categoryPaths := make(map[string]string)
	for _, cat := range p.Categories {
		categoryPaths["/"+cat.Name] = cat.Name
		for _, alias := range cat.Aliases {
			categoryPaths["/"+alias] = cat.Name
		}
	}

	seen := make(map[string]bool, len(p.Pages))
	for i, page := range p.Pages {
		if page.Title == "" {
			problems = append(problems, fmt.Sprintf("pages[%d]: title is required", i))
		}
		if !strings.HasPrefix(page.Href, "/") || page.Href == "/" {
			problems = append(problems, fmt.Sprintf("pages[%d]: href %q must be an absolute non-root path", i, page.Href))
			continue
		}
		key := strings.TrimSuffix(page.Href, "/")
		if category, ok := categoryPaths[key]; ok {
			problems = append(problems, fmt.Sprintf("pages[%d]: href %q collides with category %q", i, page.Href, category))
		}
		if seen[key] {
			problems = append(problems, fmt.Sprintf("pages[%d]: duplicate href %q", i, page.Href))
		}
		seen[key] = true
	}

	for category, name := range p.Navigation.Comparators {
		if _, err := navigation.Comparator(name, language.Und); err != nil {
			problems = append(problems, fmt.Sprintf("navigation.comparators[%s]: %v", category, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid site profile %q: %s", p.Name, strings.Join(problems, "; "))
	}
	return nil
}

// LocaleTag returns the collation locale, English by default.
func (p *Profile) LocaleTag() language.Tag {
	if p.Locale == "" {
		return language.English
	}
	tag, err := language.Parse(p.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// NavigationConfig resolves the profile's navigation section.
func (p *Profile) NavigationConfig() (navigation.Config, error) {
	tag := p.LocaleTag()
	cfg := navigation.Config{
		CategoryOrder:  append([]string(nil), p.Navigation.CategoryOrder...),
		ComponentOrder: make(map[string][]string, len(p.Navigation.ComponentOrder)),
		Comparators:    make(map[string]navigation.CompareFunc, len(p.Navigation.Comparators)),
		Locale:         tag,
	}
	for category, names := range p.Navigation.ComponentOrder {
		cfg.ComponentOrder[category] = append([]string(nil), names...)
	}
	for category, name := range p.Navigation.Comparators {
		cmp, err := navigation.Comparator(name, tag)
		if err != nil {
			return navigation.Config{}, fmt.Errorf("navigation.comparators[%s]: %w", category, err)
		}
		cfg.Comparators[category] = cmp
	}
	return cfg, nil
}

// URL joins the profile's base URL with path. Returns path unchanged when no
// base URL is configured.
func (p *Profile) URL(path string) string {
	if p.BaseURL == "" {
		return path
	}
	return strings.TrimSuffix(p.BaseURL, "/") + path
}
