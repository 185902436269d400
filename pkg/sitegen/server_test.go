package sitegen

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passport-ui/passport/pkg/breadcrumb"
	"github.com/passport-ui/passport/pkg/navigation"
)

// --- helpers ---

func testServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv := NewServer(testGenerator(t, fixtureFS()), WithLogger(testLogger()), WithRegistry(reg))
	return srv, reg
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// --- pages ---

func TestServer_Pages(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		target   string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, "<title>Installation | fixture</title>"},
		{"/getting-started", http.StatusOK, "<title>Getting Started | fixture</title>"},
		{"/components/", http.StatusOK, "<title>Components | fixture</title>"},
		{"/component/button", http.StatusOK, "<title>Button | fixture</title>"},
		{"/components/calendar", http.StatusNotFound, "<code>/components/calendar</code>"},
		{"/nope/deeper/still", http.StatusNotFound, "Page not found"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, srv, tt.target)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

// --- api ---

func TestServer_Navigation(t *testing.T) {
	srv, _ := testServer(t)

	rec := get(t, srv, "/api/navigation")
	require.Equal(t, http.StatusOK, rec.Code)
	var groups navigation.Groups
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "components", groups[0].Category)
	assert.Equal(t, "Dialog", groups[0].Definitions[0].Name)

	rec = get(t, srv, "/api/navigation?q=butt")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Definitions, 1)
	assert.Equal(t, "Button", groups[0].Definitions[0].Name)
}

func TestServer_Breadcrumbs(t *testing.T) {
	srv, _ := testServer(t)

	rec := get(t, srv, "/api/breadcrumbs?path=/components/button")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Path        string             `json:"path"`
		Title       string             `json:"title"`
		Breadcrumbs []breadcrumb.Crumb `json:"breadcrumbs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Button", body.Title)
	assert.Equal(t, []breadcrumb.Crumb{
		{Href: "/", Label: "Home"},
		{Href: "/components", Label: "Components"},
		{Href: "/components/button", Label: "Button"},
	}, body.Breadcrumbs)
}

func TestServer_BreadcrumbsRequiresPath(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv, "/api/breadcrumbs")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "path query parameter is required")
}

func TestServer_PagesAPI(t *testing.T) {
	srv, _ := testServer(t)
	rec := get(t, srv, "/api/pages")
	require.Equal(t, http.StatusOK, rec.Code)

	var pages []pageSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pages))
	require.Len(t, pages, 6)
	assert.Equal(t, pageSummary{Path: "/", Kind: KindHome, Title: "Installation"}, pages[0])
}

func TestServer_SitemapAndRegistry(t *testing.T) {
	srv, _ := testServer(t)

	rec := get(t, srv, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, rec.Body.String(), "<loc>https://docs.example/getting-started</loc>")

	rec = get(t, srv, "/registry.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name": "fixture"`)
}

// --- metrics ---

func TestServer_Metrics(t *testing.T) {
	srv, reg := testServer(t)

	get(t, srv, "/components/button")
	get(t, srv, "/components/button")
	get(t, srv, "/missing")
	get(t, srv, "/api/navigation")

	assert.Equal(t, 2.0, testutil.ToFloat64(srv.metrics.requestsTotal.WithLabelValues("component", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.requestsTotal.WithLabelValues("not_found", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.requestsTotal.WithLabelValues("api", "200")))
	assert.Equal(t, 6.0, testutil.ToFloat64(srv.metrics.sitePages))

	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "passport_preview_requests_total")

	count, err := testutil.GatherAndCount(reg, "passport_preview_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

// --- swap ---

func TestServer_Swap(t *testing.T) {
	srv, _ := testServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/hooks/use-thing").Code)

	fsys := fixtureFS()
	fsys["definitions/hooks.yaml"] = &fstest.MapFile{Data: []byte(`
name: useThing
category: hooks
slug: use-thing
story_id: hooks-use-thing--default
`)}
	next := testGenerator(t, fsys)
	srv.Swap(next)

	assert.Same(t, next, srv.Generator())
	assert.Equal(t, http.StatusOK, get(t, srv, "/hooks/use-thing").Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.siteSwaps))
	assert.Equal(t, 7.0, testutil.ToFloat64(srv.metrics.sitePages))
}

// --- serve ---

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	srv, _ := testServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/components")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "Components"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
