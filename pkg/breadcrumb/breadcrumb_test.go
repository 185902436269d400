package breadcrumb

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passport-ui/passport/pkg/registry"
)

// --- helpers ---

func testDeriver(t *testing.T, cacheSize int) *Deriver {
	t.Helper()
	cats := []registry.Category{
		{Name: "components", Label: "Components", Aliases: []string{"component"}},
		{Name: "motion-primitives", Label: "Motion Primitives"},
		{Name: "hooks"},
	}
	defs := []registry.Definition{
		{Name: "Button", Category: "components", Slug: "button", StoryID: "components-button"},
		{Name: "Calendar", Category: "components", Slug: "calendar"},
		{Name: "Text Effect", Category: "motion-primitives", Slug: "text-effect", StoryID: "motion-text-effect"},
	}
	reg, idx, err := registry.Assemble("docs", "1", cats, defs)
	require.NoError(t, err)

	cfg := Config{
		Home: Home{Href: "/", Label: "Home", Title: "Installation"},
		Pages: []Page{
			{Href: "/getting-started", Title: "Getting Started", Icon: "rocket"},
			{Href: "/theming/", Title: "Theming", Icon: "palette"},
		},
		CacheSize: cacheSize,
	}
	return New(cfg, registry.NewQueryService(reg, idx))
}

var home = Crumb{Href: "/", Label: "Home"}

// --- root ---

func TestFor_Root(t *testing.T) {
	d := testDeriver(t, 0)
	assert.Equal(t, []Crumb{{Href: "/", Label: "Installation"}}, d.For("/"))
	assert.Equal(t, "Installation", d.Title("/"))
}

func TestFor_EmptyAndSlashOnlyAreRoot(t *testing.T) {
	d := testDeriver(t, 0)
	for _, p := range []string{"", "//", "///"} {
		assert.Equal(t, []Crumb{{Href: "/", Label: "Installation"}}, d.For(p), "path %q", p)
	}
}

// --- primary pages ---

func TestFor_PrimaryPage(t *testing.T) {
	d := testDeriver(t, 0)
	assert.Equal(t, []Crumb{home, {Href: "/getting-started", Label: "Getting Started"}}, d.For("/getting-started"))
	assert.Equal(t, []Crumb{home, {Href: "/theming/", Label: "Theming"}}, d.For("/theming"))
}

// --- categories ---

func TestFor_Category(t *testing.T) {
	d := testDeriver(t, 0)
	want := []Crumb{home, {Href: "/components", Label: "Components"}}
	assert.Equal(t, want, d.For("/components"))
	assert.Equal(t, want, d.For("/components/"))
}

func TestFor_CategoryWithoutLabel(t *testing.T) {
	d := testDeriver(t, 0)
	assert.Equal(t, []Crumb{home, {Href: "/hooks", Label: "hooks"}}, d.For("/hooks"))
}

func TestFor_Component(t *testing.T) {
	d := testDeriver(t, 0)
	got := d.For("/components/button")
	require.Len(t, got, 3)
	assert.Equal(t, []Crumb{
		home,
		{Href: "/components", Label: "Components"},
		{Href: "/components/button", Label: "Button"},
	}, got)
}

func TestFor_ComponentViaAlias(t *testing.T) {
	d := testDeriver(t, 0)
	assert.Equal(t, []Crumb{
		home,
		{Href: "/component", Label: "Components"},
		{Href: "/component/button", Label: "Button"},
	}, d.For("/component/button/"))
}

func TestFor_IncompleteComponentFallsThrough(t *testing.T) {
	d := testDeriver(t, 0)
	assert.Equal(t, []Crumb{
		home,
		{Href: "/components/", Label: "Components"},
		{Href: "/components/calendar", Label: "Calendar"},
	}, d.For("/components/calendar"))
}

func TestFor_UnknownSlugFallsThrough(t *testing.T) {
	d := testDeriver(t, 0)
	assert.Equal(t, []Crumb{
		home,
		{Href: "/motion-primitives/", Label: "Motion primitives"},
		{Href: "/motion-primitives/nope", Label: "Nope"},
	}, d.For("/motion-primitives/nope"))
}

func TestFor_DeepCategoryPathFallsThrough(t *testing.T) {
	d := testDeriver(t, 0)
	got := d.For("/components/button/examples")
	require.Len(t, got, 4)
	assert.Equal(t, Crumb{Href: "/components/button/", Label: "Button"}, got[2])
	assert.Equal(t, Crumb{Href: "/components/button/examples", Label: "Examples"}, got[3])
}

// --- generic fallback ---

func TestFor_GenericFallback(t *testing.T) {
	d := testDeriver(t, 0)
	assert.Equal(t, []Crumb{
		home,
		{Href: "/unknown-category/", Label: "Unknown category"},
		{Href: "/unknown-category/foo", Label: "Foo"},
	}, d.For("/unknown-category/foo"))
}

func TestFor_GenericCollapsesEmptySegments(t *testing.T) {
	d := testDeriver(t, 0)
	assert.Equal(t, []Crumb{
		home,
		{Href: "/a/", Label: "A"},
		{Href: "/a/b", Label: "B"},
	}, d.For("/a//b"))
}

func TestSegmentLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"foo", "Foo"},
		{"unknown-category", "Unknown category"},
		{"a-b-c", "A b c"},
		{"Already", "Already"},
		{"éclair", "Éclair"},
		{"123-go", "123 go"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentLabel(tt.in))
		})
	}
}

// --- properties ---

func TestTitle_AgreesWithLastCrumb(t *testing.T) {
	d := testDeriver(t, 0)
	paths := []string{
		"/", "", "/getting-started", "/theming/", "/components", "/components/",
		"/components/button", "/component/button", "/components/calendar",
		"/unknown-category/foo", "/a/b/c/", "relative/path", "/hooks",
	}
	for _, p := range paths {
		crumbs := d.For(p)
		require.NotEmpty(t, crumbs, p)
		assert.Equal(t, crumbs[len(crumbs)-1].Label, d.Title(p), "path %q", p)
	}
}

func TestFor_TrailingSlashNormalization(t *testing.T) {
	d := testDeriver(t, 0)
	for _, p := range []string{"/components", "/components/button", "/getting-started", "/x/y"} {
		assert.Equal(t, d.For(p), d.For(p+"/"), "path %q", p)
	}
}

func TestFor_NonRootTrailsStartAtHome(t *testing.T) {
	d := testDeriver(t, 0)
	for _, p := range []string{"/components", "/components/button", "/x", "/getting-started"} {
		assert.Equal(t, home, d.For(p)[0], p)
	}
}

// --- caching ---

func TestFor_ReturnsCopies(t *testing.T) {
	d := testDeriver(t, 0)
	first := d.For("/components/button")
	first[2].Label = "Mutated"
	assert.Equal(t, "Button", d.For("/components/button")[2].Label)
}

func TestFor_CacheBounded(t *testing.T) {
	d := testDeriver(t, 2)
	d.For("/a")
	d.For("/b")
	d.For("/c")
	assert.Equal(t, 2, d.CacheLen())
}

func TestFor_CacheDisabled(t *testing.T) {
	d := testDeriver(t, -1)
	assert.Equal(t, "Button", d.Title("/components/button"))
	assert.Equal(t, 0, d.CacheLen())
}

func TestFor_Concurrent(t *testing.T) {
	d := testDeriver(t, 8)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p := fmt.Sprintf("/section-%d/page", (n+j)%12)
				assert.Len(t, d.For(p), 3)
				assert.Equal(t, "Button", d.Title("/components/button"))
			}
		}(i)
	}
	wg.Wait()
}

func TestNew_Defaults(t *testing.T) {
	d := New(Config{}, nil)
	assert.Equal(t, []Crumb{{Href: "/", Label: "Home"}}, d.For("/"))
	assert.Equal(t, []Crumb{home, {Href: "/components", Label: "Components"}}, d.For("/components"))
}
