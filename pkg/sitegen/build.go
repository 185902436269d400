package sitegen

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	sitemapFile  = "sitemap.xml"
	registryFile = "registry.json"
	notFoundFile = "404.html"
	sitemapXMLNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

// URLSet is a sitemap document.
type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapURL is one sitemap entry.
type SitemapURL struct {
	Loc      string `xml:"loc"`
	Priority string `xml:"priority,omitempty"`
}

// BuildStats summarizes a Build run.
type BuildStats struct {
	Pages    int
	Files    []string // relative to the output directory, in write order
	Duration time.Duration
}

// Sitemap lists the root and the primary pages.
func (g *Generator) Sitemap() *URLSet {
	set := &URLSet{XMLNS: sitemapXMLNS}
	set.URLs = append(set.URLs, SitemapURL{Loc: g.site.Profile.URL("/"), Priority: "1.0"})
	for _, p := range g.site.Profile.Pages {
		set.URLs = append(set.URLs, SitemapURL{
			Loc:      g.site.Profile.URL(strings.TrimSuffix(p.Href, "/")),
			Priority: "0.8",
		})
	}
	return set
}

// MarshalSitemap encodes the sitemap with an XML header.
func (g *Generator) MarshalSitemap() ([]byte, error) {
	body, err := xml.MarshalIndent(g.Sitemap(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// Build writes every page to outDir as <path>/index.html, plus 404.html,
// sitemap.xml and registry.json. Pages render concurrently; Files lists them
// in Pages order regardless.
func (g *Generator) Build(ctx context.Context, outDir string) (*BuildStats, error) {
	start := time.Now()
	stats := &BuildStats{}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	pages := g.Pages()
	g.logger.Info("building site", "site", g.site.Profile.Name, "pages", len(pages), "out", outDir)

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("build cancelled after 0 pages: %w", err)
	}
	files, err := g.renderPages(ctx, pages, outDir)
	stats.Pages = len(files)
	stats.Files = append(stats.Files, files...)
	if err != nil {
		return stats, err
	}

	var notFound bytes.Buffer
	if err := g.RenderNotFound(&notFound, "/404"); err != nil {
		return stats, err
	}
	if err := writeFile(outDir, notFoundFile, notFound.Bytes()); err != nil {
		return stats, err
	}
	stats.Files = append(stats.Files, notFoundFile)

	sitemap, err := g.MarshalSitemap()
	if err != nil {
		return stats, err
	}
	if err := writeFile(outDir, sitemapFile, sitemap); err != nil {
		return stats, err
	}
	stats.Files = append(stats.Files, sitemapFile)

	reg, err := g.site.Query.Registry.MarshalIndent()
	if err != nil {
		return stats, fmt.Errorf("failed to encode registry: %w", err)
	}
	if err := writeFile(outDir, registryFile, reg); err != nil {
		return stats, err
	}
	stats.Files = append(stats.Files, registryFile)

	stats.Duration = time.Since(start)
	g.logger.Info("site built", "site", g.site.Profile.Name, "pages", stats.Pages,
		"files", len(stats.Files), "duration", stats.Duration)
	return stats, nil
}

// renderPages renders pages on a renderPool and returns the files written, in
// page order. On failure it returns the files written before the first error.
func (g *Generator) renderPages(ctx context.Context, pages []*Page, outDir string) ([]string, error) {
	pool := newRenderPool(ctx, g, outDir, len(pages))
	pool.Start()
	defer pool.Stop()

	for i, page := range pages {
		if err := pool.Submit(pageJob{page: page, jobID: i}); err != nil {
			return nil, fmt.Errorf("build cancelled after 0 pages: %w", err)
		}
	}
	pool.FinishSubmitting()

	written := make([]string, len(pages))
	done := 0
	for done < len(pages) {
		select {
		case res := <-pool.Results():
			written[res.jobID] = res.file
			done++
		case err := <-pool.Errors():
			return compact(written), wrapBuildErr(err, done)
		case <-ctx.Done():
			return compact(written), wrapBuildErr(ctx.Err(), done)
		}
	}
	return written, nil
}

func wrapBuildErr(err error, done int) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("build cancelled after %d pages: %w", done, err)
	}
	return err
}

func compact(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// pageFile maps a page path to its index.html, relative to the output root.
func pageFile(path string) (string, error) {
	rel := filepath.Join(filepath.FromSlash(strings.Trim(path, "/")), "index.html")
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("page path %q escapes the output directory", path)
	}
	return rel, nil
}

func writeFile(root, rel string, data []byte) error {
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}
