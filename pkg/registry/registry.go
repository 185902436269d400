package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Registry is the flat, ordered list of every definition of one site,
// together with the site's category enumeration.
//
// A Registry is assembled once at startup and never mutated afterwards.
type Registry struct {
	Name        string       `json:"name"`
	Version     string       `json:"version,omitempty"`
	Categories  []Category   `json:"categories"`
	Definitions []Definition `json:"definitions"`
}

// Index provides O(1) lookups into the registry.
// Built by BuildIndex after validation passes.
type Index struct {
	// CategoryByName maps category name or alias -> *Category.
	CategoryByName map[string]*Category

	// CompleteByCategory maps canonical category -> complete definitions, registry order.
	CompleteByCategory map[string][]*Definition

	// BySlug maps slug -> first definition carrying it, complete or not.
	BySlug map[string]*Definition

	// ByCategorySlug maps "category/slug" -> complete definition.
	ByCategorySlug map[string]*Definition
}

func categorySlugKey(category, slug string) string {
	return category + "/" + slug
}

// Validate checks the registry for internal consistency.
// Returns a slice of validation errors (empty slice if valid).
func (r *Registry) Validate() []error {
	var errs []error

	if r.Name == "" {
		errs = append(errs, fmt.Errorf("registry name is required"))
	}

	// name or alias -> canonical name
	known := make(map[string]string, len(r.Categories))

	for i, cat := range r.Categories {
		if cat.Name == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: name is required", i))
			continue
		}
		if _, dup := known[cat.Name]; dup {
			errs = append(errs, fmt.Errorf("categories[%d]: duplicate category name %q", i, cat.Name))
			continue
		}
		if !validSlug(cat.Name) {
			errs = append(errs, fmt.Errorf("categories[%d]: name %q is not a valid path segment", i, cat.Name))
		}
		known[cat.Name] = cat.Name
	}
	for _, cat := range r.Categories {
		for _, alias := range cat.Aliases {
			if owner, dup := known[alias]; dup {
				if owner != cat.Name || alias == cat.Name {
					errs = append(errs, fmt.Errorf("category %q: alias %q collides with category %q", cat.Name, alias, owner))
				}
				continue
			}
			known[alias] = cat.Name
		}
	}

	namesInCategory := make(map[string]bool, len(r.Definitions))
	completeSlugs := make(map[string]int, len(r.Definitions))

	for i, def := range r.Definitions {
		if def.Name == "" {
			errs = append(errs, fmt.Errorf("definitions[%d]: name is required", i))
			continue
		}
		canonical, ok := known[def.Category]
		if !ok {
			errs = append(errs, fmt.Errorf("definition %q: references unknown category %q", def.Name, def.Category))
			continue
		}

		nameKey := canonical + "\x00" + def.Name
		if namesInCategory[nameKey] {
			errs = append(errs, fmt.Errorf("definition %q: duplicate name in category %q", def.Name, canonical))
		}
		namesInCategory[nameKey] = true

		if def.Slug != "" && !validSlug(def.Slug) {
			errs = append(errs, fmt.Errorf("definition %q: slug %q must not contain '/' or whitespace, or be a dot segment", def.Name, def.Slug))
			continue
		}

		if def.IsComplete() {
			key := categorySlugKey(canonical, def.Slug)
			if first, dup := completeSlugs[key]; dup {
				errs = append(errs, fmt.Errorf("definition %q: slug %q already used in category %q by %q",
					def.Name, def.Slug, canonical, r.Definitions[first].Name))
				continue
			}
			completeSlugs[key] = i
		}
	}

	return errs
}

// validSlug reports whether s can be used as a single URL path segment.
func validSlug(s string) bool {
	if s == "." || s == ".." {
		return false
	}
	for _, r := range s {
		if r == '/' || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// canonicalize rewrites alias categories on definitions to the canonical
// category name. Unknown categories are left untouched for Validate to report.
func (r *Registry) canonicalize() {
	canonical := make(map[string]string)
	for _, cat := range r.Categories {
		for _, alias := range cat.Aliases {
			canonical[alias] = cat.Name
		}
	}
	for _, cat := range r.Categories {
		canonical[cat.Name] = cat.Name
	}
	for i := range r.Definitions {
		if name, ok := canonical[r.Definitions[i].Category]; ok {
			r.Definitions[i].Category = name
		}
	}
}

// BuildIndex creates lookup maps for fast access.
// Should be called after Validate() passes.
func (r *Registry) BuildIndex() *Index {
	idx := &Index{
		CategoryByName:     make(map[string]*Category, len(r.Categories)),
		CompleteByCategory: make(map[string][]*Definition, len(r.Categories)),
		BySlug:             make(map[string]*Definition, len(r.Definitions)),
		ByCategorySlug:     make(map[string]*Definition, len(r.Definitions)),
	}

	for i := range r.Categories {
		cat := &r.Categories[i]
		for _, alias := range cat.Aliases {
			idx.CategoryByName[alias] = cat
		}
	}
	// Canonical names win over aliases.
	for i := range r.Categories {
		idx.CategoryByName[r.Categories[i].Name] = &r.Categories[i]
	}

	for i := range r.Definitions {
		def := &r.Definitions[i]
		if def.Slug != "" {
			if _, seen := idx.BySlug[def.Slug]; !seen {
				idx.BySlug[def.Slug] = def
			}
		}
		if !def.IsComplete() {
			continue
		}
		category := def.Category
		if cat, ok := idx.CategoryByName[category]; ok {
			category = cat.Name
		}
		idx.CompleteByCategory[category] = append(idx.CompleteByCategory[category], def)
		key := categorySlugKey(category, def.Slug)
		if _, seen := idx.ByCategorySlug[key]; !seen {
			idx.ByCategorySlug[key] = def
		}
	}

	return idx
}

// Assemble copies the given categories and definitions into a new Registry,
// canonicalizes alias categories, validates the result and builds its index.
func Assemble(name, version string, categories []Category, defs []Definition) (*Registry, *Index, error) {
	reg := &Registry{
		Name:        name,
		Version:     version,
		Categories:  cloneCategories(categories),
		Definitions: append([]Definition(nil), defs...),
	}
	if reg.Definitions == nil {
		reg.Definitions = []Definition{}
	}
	return finish(reg)
}

func finish(reg *Registry) (*Registry, *Index, error) {
	reg.canonicalize()
	if errs := reg.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("registry validation failed: %w", errors.Join(errs...))
	}
	return reg, reg.BuildIndex(), nil
}

func cloneCategories(in []Category) []Category {
	out := make([]Category, len(in))
	for i, c := range in {
		c.Aliases = append([]string(nil), c.Aliases...)
		out[i] = c
	}
	return out
}

// LoadFromFile loads a registry from a JSON file, validates it, and builds the index.
func LoadFromFile(path string) (*Registry, *Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses a registry from raw JSON bytes, validates it, and builds the index.
func LoadFromBytes(data []byte) (*Registry, *Index, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse registry JSON: %w", err)
	}
	return finish(&reg)
}

// MarshalIndent renders the registry as the JSON export document.
func (r *Registry) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// normalizeQuery lower-cases and trims a free-text query.
func normalizeQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
