// Package navigation orders categories and component definitions for the
// documentation sidebars.
package navigation

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/passport-ui/passport/pkg/registry"
)

// CompareFunc orders two definitions of the same category. It returns a
// negative number when a sorts before b, zero when they are equivalent and
// a positive number otherwise.
type CompareFunc func(a, b registry.Definition) int

// Config holds the configured display order.
// The zero value is valid: everything sorts alphabetically.
type Config struct {
	// CategoryOrder lists category names in priority order.
	CategoryOrder []string

	// ComponentOrder maps a category to component names in priority order.
	ComponentOrder map[string][]string

	// Comparators maps a category to the comparator for components that are
	// not named in ComponentOrder.
	Comparators map[string]CompareFunc

	// Locale drives alphabetical collation. Defaults to English.
	Locale language.Tag
}

// Group is one category with its ordered definitions.
type Group struct {
	Category    string                `json:"category"`
	Definitions []registry.Definition `json:"definitions"`
}

// Groups is the ordered navigation tree.
type Groups []Group

// ByCategory converts the ordered tree back to its map form.
func (g Groups) ByCategory() map[string][]registry.Definition {
	out := make(map[string][]registry.Definition, len(g))
	for _, grp := range g {
		out[grp.Category] = append([]registry.Definition(nil), grp.Definitions...)
	}
	return out
}

// Len returns the total number of definitions across all groups.
func (g Groups) Len() int {
	n := 0
	for _, grp := range g {
		n += len(grp.Definitions)
	}
	return n
}

// SortAndFilter returns the navigation tree for byCategory.
//
// A non-blank search keeps only definitions whose name contains it
// case-insensitively and drops categories left empty. Categories listed in
// CategoryOrder come first by list position, the rest follow alphabetically.
// Within a category, names listed in ComponentOrder come first by position;
// the rest use the category's comparator, or alphabetical order when none is
// configured.
//
// The input is never modified.
func SortAndFilter(cfg Config, byCategory map[string][]registry.Definition, search string) Groups {
	c := newCollator(cfg.Locale)
	needle := foldQuery(search)

	groups := make(Groups, 0, len(byCategory))
	for category, defs := range byCategory {
		kept := filterByName(defs, needle)
		if needle != "" && len(kept) == 0 {
			continue
		}
		sortDefinitions(kept, cfg.ComponentOrder[category], cfg.Comparators[category], c)
		groups = append(groups, Group{Category: category, Definitions: kept})
	}

	categoryRank := rankOf(cfg.CategoryOrder)
	sort.SliceStable(groups, func(i, j int) bool {
		return lessByRank(groups[i].Category, groups[j].Category, categoryRank, c)
	})
	return groups
}

// SortCategories orders category names the same way SortAndFilter orders groups.
func SortCategories(cfg Config, categories []string) []string {
	out := append([]string(nil), categories...)
	c := newCollator(cfg.Locale)
	rank := rankOf(cfg.CategoryOrder)
	sort.SliceStable(out, func(i, j int) bool {
		return lessByRank(out[i], out[j], rank, c)
	})
	return out
}

func foldQuery(search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return ""
	}
	return cases.Fold().String(search)
}

// filterByName always returns a fresh slice.
func filterByName(defs []registry.Definition, needle string) []registry.Definition {
	out := make([]registry.Definition, 0, len(defs))
	if needle == "" {
		return append(out, defs...)
	}
	fold := cases.Fold()
	for _, d := range defs {
		if strings.Contains(fold.String(d.Name), needle) {
			out = append(out, d)
		}
	}
	return out
}

func sortDefinitions(defs []registry.Definition, priority []string, cmp CompareFunc, c *collator) {
	rank := rankOf(priority)
	sort.SliceStable(defs, func(i, j int) bool {
		a, b := defs[i], defs[j]
		ra, aListed := rank[a.Name]
		rb, bListed := rank[b.Name]
		switch {
		case aListed && bListed:
			return ra < rb
		case aListed != bListed:
			return aListed
		case cmp != nil:
			return cmp(a, b) < 0
		default:
			return c.less(a.Name, b.Name)
		}
	})
}

func rankOf(order []string) map[string]int {
	rank := make(map[string]int, len(order))
	for i, name := range order {
		if _, dup := rank[name]; !dup {
			rank[name] = i
		}
	}
	return rank
}

func lessByRank(a, b string, rank map[string]int, c *collator) bool {
	ra, aListed := rank[a]
	rb, bListed := rank[b]
	switch {
	case aListed && bListed:
		return ra < rb
	case aListed != bListed:
		return aListed
	default:
		return c.less(a, b)
	}
}

// collator wraps collate.Collator, which is not safe for concurrent use;
// one is created per SortAndFilter call.
type collator struct {
	c *collate.Collator
}

func newCollator(tag language.Tag) *collator {
	if tag == language.Und {
		tag = language.English
	}
	return &collator{c: collate.New(tag)}
}

// less orders by collation, then by bytes so the order stays total.
func (c *collator) less(a, b string) bool {
	if r := c.c.CompareString(a, b); r != 0 {
		return r < 0
	}
	return a < b
}
