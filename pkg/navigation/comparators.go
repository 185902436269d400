package navigation

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/passport-ui/passport/pkg/registry"
)

// Named comparators usable from site configuration.
const (
	ComparatorAlphabetical        = "alphabetical"
	ComparatorReverseAlphabetical = "reverse-alphabetical"
	ComparatorRegistry            = "registry"
)

// ComparatorNames returns the names accepted by Comparator, sorted.
func ComparatorNames() []string {
	names := []string{ComparatorAlphabetical, ComparatorReverseAlphabetical, ComparatorRegistry}
	sort.Strings(names)
	return names
}

// Comparator resolves a named comparator for the given locale.
func Comparator(name string, tag language.Tag) (CompareFunc, error) {
	if tag == language.Und {
		tag = language.English
	}
	switch name {
	case ComparatorAlphabetical:
		return func(a, b registry.Definition) int {
			return compareNames(tag, a.Name, b.Name)
		}, nil
	case ComparatorReverseAlphabetical:
		return func(a, b registry.Definition) int {
			return compareNames(tag, b.Name, a.Name)
		}, nil
	case ComparatorRegistry:
		// Stable sorting with an always-equal comparator keeps registry order.
		return func(a, b registry.Definition) int { return 0 }, nil
	default:
		return nil, fmt.Errorf("unknown comparator %q (want one of %v)", name, ComparatorNames())
	}
}

// compareNames builds a collator per call because collate.Collator keeps
// internal buffers.
func compareNames(tag language.Tag, a, b string) int {
	if r := collate.New(tag).CompareString(a, b); r != 0 {
		return r
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
