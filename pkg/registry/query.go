package registry

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// QueryService provides read-only query methods over a loaded registry.
// It is safe for concurrent use: neither the registry nor the index is
// written after construction.
type QueryService struct {
	Registry *Registry
	Index    *Index
}

// NewQueryService creates a QueryService from a validated registry and its index.
func NewQueryService(reg *Registry, idx *Index) *QueryService {
	return &QueryService{Registry: reg, Index: idx}
}

// LoadAndQuery loads a registry from a JSON file and returns a ready-to-use QueryService.
func LoadAndQuery(path string) (*QueryService, error) {
	reg, idx, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return NewQueryService(reg, idx), nil
}

// LoadAndQueryBytes loads a registry from raw JSON bytes and returns a ready-to-use QueryService.
func LoadAndQueryBytes(data []byte) (*QueryService, error) {
	reg, idx, err := LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	return NewQueryService(reg, idx), nil
}

// Complete returns the complete definitions of defs, preserving order.
func Complete(defs []Definition) []Definition {
	out := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if d.IsComplete() {
			out = append(out, d)
		}
	}
	return out
}

// GroupByCategory maps each category to the definitions sharing it,
// preserving their relative order. No filtering is applied; categories
// without definitions are absent from the result.
func GroupByCategory(defs []Definition) map[string][]Definition {
	out := make(map[string][]Definition)
	for _, d := range defs {
		out[d.Category] = append(out[d.Category], d)
	}
	return out
}

// Categories returns a copy of the category enumeration in declaration order.
func (q *QueryService) Categories() []Category {
	return cloneCategories(q.Registry.Categories)
}

// Category resolves a category by canonical name or alias.
func (q *QueryService) Category(name string) (*Category, bool) {
	cat, ok := q.Index.CategoryByName[name]
	return cat, ok
}

// IsKnownCategory reports whether name is a category name or alias.
func (q *QueryService) IsKnownCategory(name string) bool {
	_, ok := q.Index.CategoryByName[name]
	return ok
}

// CategoryLabel returns the display label of a category, falling back to
// the raw string for unknown categories.
func (q *QueryService) CategoryLabel(name string) string {
	if cat, ok := q.Index.CategoryByName[name]; ok {
		return cat.DisplayLabel()
	}
	return name
}

// Definitions returns a copy of every definition in registry order.
func (q *QueryService) Definitions() []Definition {
	return append([]Definition(nil), q.Registry.Definitions...)
}

// AllSlugs returns the slugs of all complete definitions, in registry order.
func (q *QueryService) AllSlugs() []string {
	slugs := make([]string, 0, len(q.Registry.Definitions))
	for _, d := range q.Registry.Definitions {
		if d.IsComplete() {
			slugs = append(slugs, d.Slug)
		}
	}
	return slugs
}

// BySlug returns the first definition (registry order) carrying slug.
// The bool indicates whether a definition was found. The result is a copy;
// writing through it leaves the registry untouched.
func (q *QueryService) BySlug(slug string) (*Definition, bool) {
	if slug == "" {
		return nil, false
	}
	d, ok := q.Index.BySlug[slug]
	if !ok {
		return nil, false
	}
	cp := *d
	return &cp, true
}

// ByCategoryAndSlug returns the complete definition at (category, slug).
// category may be a canonical name or an alias. The result is a copy.
func (q *QueryService) ByCategoryAndSlug(category, slug string) (*Definition, bool) {
	cat, ok := q.Index.CategoryByName[category]
	if !ok || slug == "" {
		return nil, false
	}
	d, ok := q.Index.ByCategorySlug[categorySlugKey(cat.Name, slug)]
	if !ok {
		return nil, false
	}
	cp := *d
	return &cp, true
}

// AllByCategory returns the complete definitions of a category.
// Returns an empty slice for unknown or empty categories.
func (q *QueryService) AllByCategory(category string) []Definition {
	result := make([]Definition, 0)
	cat, ok := q.Index.CategoryByName[category]
	if !ok {
		return result
	}
	for _, d := range q.Index.CompleteByCategory[cat.Name] {
		result = append(result, *d)
	}
	return result
}

// Navigable returns the complete definitions grouped by canonical category.
// Every declared category is present, possibly with an empty list.
func (q *QueryService) Navigable() map[string][]Definition {
	out := make(map[string][]Definition, len(q.Registry.Categories))
	for _, cat := range q.Registry.Categories {
		out[cat.Name] = q.AllByCategory(cat.Name)
	}
	return out
}

// Search performs a case-insensitive search across definition names and
// descriptions, then adds fuzzy name matches for anything not yet found.
// Only complete definitions are searched.
func (q *QueryService) Search(query string) []SearchResult {
	query = normalizeQuery(query)
	if query == "" {
		return nil
	}

	var candidates []*Definition
	for i := range q.Registry.Definitions {
		if q.Registry.Definitions[i].IsComplete() {
			candidates = append(candidates, &q.Registry.Definitions[i])
		}
	}

	seen := make(map[*Definition]bool)
	var results []SearchResult

	for _, d := range candidates {
		if strings.Contains(strings.ToLower(d.Name), query) {
			seen[d] = true
			results = append(results, SearchResult{Definition: d, MatchReason: "name"})
		}
	}
	for _, d := range candidates {
		if seen[d] {
			continue
		}
		if strings.Contains(strings.ToLower(d.Description), query) {
			seen[d] = true
			results = append(results, SearchResult{Definition: d, MatchReason: "description"})
		}
	}

	names := make([]string, len(candidates))
	for i, d := range candidates {
		names[i] = strings.ToLower(d.Name)
	}
	for _, m := range fuzzy.Find(query, names) {
		d := candidates[m.Index]
		if seen[d] {
			continue
		}
		seen[d] = true
		results = append(results, SearchResult{Definition: d, MatchReason: "fuzzy"})
	}

	return results
}
