package navigation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/passport-ui/passport/pkg/registry"
)

// --- helpers ---

func def(category, name string) registry.Definition {
	slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	return registry.Definition{Name: name, Category: category, Slug: slug, StoryID: category + "-" + slug}
}

func testData() map[string][]registry.Definition {
	return map[string][]registry.Definition{
		"components": {
			def("components", "Tabs"),
			def("components", "button"),
			def("components", "Dialog"),
			def("components", "Accordion"),
		},
		"motion-primitives": {
			def("motion-primitives", "Slide"),
			def("motion-primitives", "Fade"),
		},
		"layouts": {
			def("layouts", "Sidebar"),
		},
		"hooks": {
			def("hooks", "useMedia"),
		},
		"providers": {},
	}
}

func categories(g Groups) []string {
	out := make([]string, len(g))
	for i, grp := range g {
		out[i] = grp.Category
	}
	return out
}

func groupNames(g Group) []string {
	out := make([]string, len(g.Definitions))
	for i, d := range g.Definitions {
		out[i] = d.Name
	}
	return out
}

func find(t *testing.T, g Groups, category string) Group {
	t.Helper()
	for _, grp := range g {
		if grp.Category == category {
			return grp
		}
	}
	t.Fatalf("category %q not in result", category)
	return Group{}
}

// --- category ordering ---

func TestSortAndFilter_CategoryOrderDefaultsToAlphabetical(t *testing.T) {
	got := SortAndFilter(Config{}, testData(), "")
	assert.Equal(t, []string{"components", "hooks", "layouts", "motion-primitives", "providers"}, categories(got))
}

func TestSortAndFilter_CategoryPriority(t *testing.T) {
	cfg := Config{CategoryOrder: []string{"providers", "components", "not-present"}}
	got := SortAndFilter(cfg, testData(), "")
	assert.Equal(t, []string{"providers", "components", "hooks", "layouts", "motion-primitives"}, categories(got))
}

// --- component ordering ---

func TestSortAndFilter_ComponentsAlphabeticalCaseInsensitive(t *testing.T) {
	got := SortAndFilter(Config{}, testData(), "")
	assert.Equal(t, []string{"Accordion", "button", "Dialog", "Tabs"}, groupNames(find(t, got, "components")))
}

func TestSortAndFilter_ComponentPriority(t *testing.T) {
	cfg := Config{ComponentOrder: map[string][]string{
		"components": {"Tabs", "Dialog"},
	}}
	got := SortAndFilter(cfg, testData(), "")
	assert.Equal(t, []string{"Tabs", "Dialog", "Accordion", "button"}, groupNames(find(t, got, "components")))
}

func TestSortAndFilter_ComparatorForUnlisted(t *testing.T) {
	registryOrder, err := Comparator(ComparatorRegistry, language.English)
	require.NoError(t, err)
	cfg := Config{
		ComponentOrder: map[string][]string{"components": {"Dialog"}},
		Comparators:    map[string]CompareFunc{"components": registryOrder},
	}
	got := SortAndFilter(cfg, testData(), "")
	assert.Equal(t, []string{"Dialog", "Tabs", "button", "Accordion"}, groupNames(find(t, got, "components")))
}

func TestSortAndFilter_ComparatorWithoutPriorityList(t *testing.T) {
	reverse, err := Comparator(ComparatorReverseAlphabetical, language.English)
	require.NoError(t, err)
	cfg := Config{Comparators: map[string]CompareFunc{"motion-primitives": reverse}}
	got := SortAndFilter(cfg, testData(), "")
	assert.Equal(t, []string{"Slide", "Fade"}, groupNames(find(t, got, "motion-primitives")))
}

func TestSortAndFilter_LocaleAware(t *testing.T) {
	data := map[string][]registry.Definition{
		"components": {def("components", "Zebra"), def("components", "Éclair"), def("components", "apple")},
	}
	got := SortAndFilter(Config{Locale: language.French}, data, "")
	assert.Equal(t, []string{"apple", "Éclair", "Zebra"}, groupNames(got[0]))
}

// --- filtering ---

func TestSortAndFilter_NoFilterKeepsEverything(t *testing.T) {
	data := testData()
	total := 0
	for _, defs := range data {
		total += len(defs)
	}
	for _, search := range []string{"", "   ", "\t"} {
		got := SortAndFilter(Config{}, data, search)
		assert.Equal(t, total, got.Len(), "search %q", search)
		assert.Len(t, got, len(data))
	}
}

func TestSortAndFilter_SearchCaseInsensitiveSubstring(t *testing.T) {
	got := SortAndFilter(Config{}, testData(), "DI")
	require.Len(t, got, 2)
	assert.Equal(t, []string{"components", "hooks"}, categories(got))
	assert.Equal(t, []string{"Accordion", "Dialog"}, groupNames(got[0]))
	assert.Equal(t, []string{"useMedia"}, groupNames(got[1]))
}

func TestSortAndFilter_SearchDropsEmptyCategories(t *testing.T) {
	got := SortAndFilter(Config{}, testData(), "use")
	require.Len(t, got, 1)
	assert.Equal(t, "hooks", got[0].Category)
}

func TestSortAndFilter_SearchNoMatches(t *testing.T) {
	got := SortAndFilter(Config{}, testData(), "zzz")
	assert.Empty(t, got)
}

func TestSortAndFilter_SearchTrimsWhitespace(t *testing.T) {
	got := SortAndFilter(Config{}, testData(), "  fade ")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Fade"}, groupNames(got[0]))
}

func TestSortAndFilter_EveryResultMatches(t *testing.T) {
	for _, search := range []string{"a", "o", "Tab", "media"} {
		got := SortAndFilter(Config{}, testData(), search)
		for _, grp := range got {
			require.NotEmpty(t, grp.Definitions)
			for _, d := range grp.Definitions {
				assert.Contains(t, strings.ToLower(d.Name), strings.ToLower(search))
			}
		}
	}
}

// --- properties ---

func TestSortAndFilter_Idempotent(t *testing.T) {
	registryOrder, err := Comparator(ComparatorRegistry, language.English)
	require.NoError(t, err)
	configs := []Config{
		{},
		{CategoryOrder: []string{"layouts", "components"}},
		{ComponentOrder: map[string][]string{"components": {"Tabs"}}, Comparators: map[string]CompareFunc{"components": registryOrder}},
	}
	for _, cfg := range configs {
		for _, search := range []string{"", "a"} {
			once := SortAndFilter(cfg, testData(), search)
			twice := SortAndFilter(cfg, once.ByCategory(), search)
			assert.Equal(t, once, twice)
		}
	}
}

func TestSortAndFilter_DoesNotMutateInput(t *testing.T) {
	data := testData()
	before := append([]registry.Definition(nil), data["components"]...)

	got := SortAndFilter(Config{}, data, "")
	assert.Equal(t, before, data["components"])

	got[0].Definitions[0].Name = "Mutated"
	assert.Equal(t, before, data["components"])
}

func TestSortAndFilter_Deterministic(t *testing.T) {
	first := SortAndFilter(Config{}, testData(), "")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, SortAndFilter(Config{}, testData(), ""))
	}
}

func TestSortAndFilter_EmptyInput(t *testing.T) {
	got := SortAndFilter(Config{}, nil, "")
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

// --- SortCategories ---

func TestSortCategories(t *testing.T) {
	in := []string{"layouts", "components", "hooks"}
	got := SortCategories(Config{CategoryOrder: []string{"hooks"}}, in)
	assert.Equal(t, []string{"hooks", "components", "layouts"}, got)
	assert.Equal(t, []string{"layouts", "components", "hooks"}, in)
}

// --- comparators ---

func TestComparator_Unknown(t *testing.T) {
	_, err := Comparator("random", language.English)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown comparator")
}

func TestComparatorNames(t *testing.T) {
	assert.Equal(t, []string{"alphabetical", "registry", "reverse-alphabetical"}, ComparatorNames())
}

func TestComparator_Alphabetical(t *testing.T) {
	cmp, err := Comparator(ComparatorAlphabetical, language.Und)
	require.NoError(t, err)
	assert.Negative(t, cmp(def("c", "alpha"), def("c", "Beta")))
	assert.Positive(t, cmp(def("c", "Beta"), def("c", "alpha")))
	assert.Zero(t, cmp(def("c", "same"), def("c", "same")))
}
