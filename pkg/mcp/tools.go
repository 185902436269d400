package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type registeredTool struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

func (s *Server) tools() []registeredTool {
	return []registeredTool{
		{listCategoriesTool(), s.handleListCategories},
		{listComponentsTool(), s.handleListComponents},
		{getComponentTool(), s.handleGetComponent},
		{searchComponentsTool(), s.handleSearchComponents},
		{getBreadcrumbsTool(), s.handleGetBreadcrumbs},
		{listPagesTool(), s.handleListPages},
	}
}

// ToolNames returns the names of every tool the server registers.
func (s *Server) ToolNames() []string {
	tools := s.tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.tool.Name
	}
	return names
}

func readOnly(name string, opts ...mcp.ToolOption) mcp.Tool {
	opts = append(opts,
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	return mcp.NewTool(name, opts...)
}

func listCategoriesTool() mcp.Tool {
	return readOnly("list_categories",
		mcp.WithDescription("Lists component categories in navigation order with their labels, aliases and the number of documented components."),
	)
}

func listComponentsTool() mcp.Tool {
	return readOnly("list_components",
		mcp.WithDescription("Lists documented components in navigation order, optionally restricted to one category and filtered by a case-insensitive name substring."),
		mcp.WithString("category", mcp.Description("Category name or alias, e.g. \"components\"")),
		mcp.WithString("search", mcp.Description("Name substring filter")),
	)
}

func getComponentTool() mcp.Tool {
	return readOnly("get_component",
		mcp.WithDescription("Returns one component definition with its import and usage snippets, documentation URL and breadcrumb trail."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Component slug, e.g. \"button\"")),
		mcp.WithString("category", mcp.Description("Category name or alias; required to disambiguate slugs shared across categories")),
	)
}

func searchComponentsTool() mcp.Tool {
	return readOnly("search_components",
		mcp.WithDescription("Searches documented components by name, description and fuzzy name match."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	)
}

func getBreadcrumbsTool() mcp.Tool {
	return readOnly("get_breadcrumbs",
		mcp.WithDescription("Derives the breadcrumb trail and page title for a documentation URL path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("URL path, e.g. \"/components/button\"")),
	)
}

func listPagesTool() mcp.Tool {
	return readOnly("list_pages",
		mcp.WithDescription("Lists every statically generated page with its kind and title."),
		mcp.WithString("kind", mcp.Description("Restrict to one page kind"), mcp.Enum("home", "page", "category", "component")),
	)
}
