package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/passport-ui/passport/pkg/breadcrumb"
	"github.com/passport-ui/passport/pkg/registry"
	"github.com/passport-ui/passport/pkg/sitegen"
)

const defaultSearchLimit = 20

type categorySummary struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Count       int      `json:"count"`
}

type componentSummary struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Href        string `json:"href"`
}

type componentDetail struct {
	registry.Definition
	Complete    bool               `json:"complete"`
	Href        string             `json:"href,omitempty"`
	URL         string             `json:"url,omitempty"`
	Breadcrumbs []breadcrumb.Crumb `json:"breadcrumbs,omitempty"`
}

type searchHit struct {
	componentSummary
	MatchReason string `json:"match_reason"`
}

type breadcrumbsResult struct {
	Path        string             `json:"path"`
	Title       string             `json:"title"`
	Breadcrumbs []breadcrumb.Crumb `json:"breadcrumbs"`
}

type pageSummary struct {
	Path  string       `json:"path"`
	Kind  sitegen.Kind `json:"kind"`
	Title string       `json:"title"`
}

func (s *Server) handleListCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.Generator().Site()

	names := st.CategoryNames()
	out := make([]categorySummary, 0, len(names))
	for _, name := range names {
		cat, _ := st.Query.Category(name)
		out = append(out, categorySummary{
			Name:        cat.Name,
			Label:       cat.DisplayLabel(),
			Description: cat.Description,
			Aliases:     cat.Aliases,
			Count:       len(st.Query.AllByCategory(cat.Name)),
		})
	}
	return jsonResult(out)
}

func (s *Server) handleListComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.Generator().Site()
	category := req.GetString("category", "")
	search := req.GetString("search", "")

	if category != "" {
		cat, ok := st.Query.Category(category)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category %q (known: %v)", category, st.CategoryNames())), nil
		}
		category = cat.Name
	}

	out := make([]componentSummary, 0)
	for _, group := range st.Navigation(search) {
		if category != "" && group.Category != category {
			continue
		}
		for _, d := range group.Definitions {
			out = append(out, summarize(d))
		}
	}
	return jsonResult(out)
}

func (s *Server) handleGetComponent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st := s.Generator().Site()

	var def *registry.Definition
	var ok bool
	if category := req.GetString("category", ""); category != "" {
		if !st.Query.IsKnownCategory(category) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", category)), nil
		}
		def, ok = st.Query.ByCategoryAndSlug(category, slug)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no documented component %q in category %q", slug, category)), nil
		}
	} else {
		def, ok = st.Query.BySlug(slug)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no component with slug %q", slug)), nil
		}
	}

	detail := componentDetail{Definition: *def, Complete: def.IsComplete()}
	if detail.Complete {
		detail.Href = href(*def)
		detail.URL = st.Profile.URL(detail.Href)
		detail.Breadcrumbs = st.Crumbs.For(detail.Href)
	}
	return jsonResult(detail)
}

func (s *Server) handleSearchComponents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results := s.Generator().Site().Query.Search(query)
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]searchHit, len(results))
	for i, r := range results {
		out[i] = searchHit{componentSummary: summarize(*r.Definition), MatchReason: r.MatchReason}
	}
	return jsonResult(out)
}

func (s *Server) handleGetBreadcrumbs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	crumbs := s.Generator().Site().Crumbs
	return jsonResult(breadcrumbsResult{
		Path:        path,
		Title:       crumbs.Title(path),
		Breadcrumbs: crumbs.For(path),
	})
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := sitegen.Kind(req.GetString("kind", ""))

	out := make([]pageSummary, 0)
	for _, p := range s.Generator().Pages() {
		if kind != "" && p.Kind != kind {
			continue
		}
		out = append(out, pageSummary{Path: p.Path, Kind: p.Kind, Title: p.Title})
	}
	return jsonResult(out)
}

func summarize(d registry.Definition) componentSummary {
	return componentSummary{
		Name:        d.Name,
		Category:    d.Category,
		Slug:        d.Slug,
		Description: d.Description,
		Href:        href(d),
	}
}

func href(d registry.Definition) string {
	return "/" + d.Category + "/" + d.Slug
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
