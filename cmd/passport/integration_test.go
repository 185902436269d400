package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// binaryPath is set by TestMain after building the binary.
var binaryPath string

func TestMain(m *testing.M) {
	color.NoColor = true

	if os.Getenv("INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	tmp, err := os.MkdirTemp("", "passport-integration-*")
	if err != nil {
		panic(err)
	}
	binaryPath = filepath.Join(tmp, "passport")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		os.RemoveAll(tmp)
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

// --- helpers ---

func skipIfNotIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run integration tests")
	}
}

// startServer launches passport serve as a subprocess and returns an
// initialized MCP client.
func startServer(t *testing.T, args ...string) *client.Client {
	t.Helper()

	argv := append([]string{"serve", "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...)
	c, err := client.NewStdioMCPClient(binaryPath, nil, argv...)
	require.NoError(t, err, "failed to start MCP server")
	t.Cleanup(func() {
		c.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "passport-integration-test",
		Version: "1.0.0",
	}

	result, err := c.Initialize(ctx, initReq)
	require.NoError(t, err, "failed to initialize MCP session")
	assert.Equal(t, "passport", result.ServerInfo.Name)

	return c
}

func callToolHelper(t *testing.T, c *client.Client, toolName string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	if args != nil {
		req.Params.Arguments = args
	}

	result, err := c.CallTool(ctx, req)
	require.NoError(t, err, "CallTool(%s) failed", toolName)
	return result
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	require.False(t, result.IsError, "unexpected tool error")
	require.NotEmpty(t, result.Content, "expected content in result")
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), v))
}

// --- integration tests ---

func TestIntegration_ListTools(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)

	toolNames := make([]string, len(tools.Tools))
	for i, tool := range tools.Tools {
		toolNames[i] = tool.Name
	}
	for _, name := range []string{
		"list_categories",
		"list_components",
		"get_component",
		"search_components",
		"get_breadcrumbs",
		"list_pages",
	} {
		assert.Contains(t, toolNames, name, "missing tool: %s", name)
	}
}

func TestIntegration_ListCategories(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	var cats []map[string]any
	decodeResult(t, callToolHelper(t, c, "list_categories", nil), &cats)
	require.NotEmpty(t, cats)
	assert.Equal(t, "components", cats[0]["name"])
	assert.Contains(t, cats[0], "count")
}

func TestIntegration_GetComponent(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	t.Run("documented component", func(t *testing.T) {
		var detail map[string]any
		decodeResult(t, callToolHelper(t, c, "get_component", map[string]any{"slug": "button"}), &detail)
		assert.Equal(t, "Button", detail["name"])
		assert.Equal(t, "https://passport-ui.dev/components/button", detail["url"])
		assert.Contains(t, detail, "breadcrumbs")
	})

	t.Run("unknown slug is a tool error", func(t *testing.T) {
		result := callToolHelper(t, c, "get_component", map[string]any{"slug": "nope"})
		assert.True(t, result.IsError)
	})
}

func TestIntegration_SearchComponents(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	var hits []map[string]any
	decodeResult(t, callToolHelper(t, c, "search_components", map[string]any{"query": "button"}), &hits)
	require.NotEmpty(t, hits)
	assert.Equal(t, "Button", hits[0]["name"])
}

func TestIntegration_GetBreadcrumbs(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t)

	var got map[string]any
	decodeResult(t, callToolHelper(t, c, "get_breadcrumbs", map[string]any{"path": "/components/dialog"}), &got)
	assert.Equal(t, "Dialog", got["title"])
	assert.Len(t, got["breadcrumbs"], 3)
}

func TestIntegration_BundledSiteFlag(t *testing.T) {
	skipIfNotIntegration(t)
	c := startServer(t, "--site", "install-site")

	var pages []map[string]any
	decodeResult(t, callToolHelper(t, c, "list_pages", map[string]any{"kind": "component"}), &pages)
	require.NotEmpty(t, pages)
	for _, p := range pages {
		assert.Equal(t, "component", p["kind"])
	}
}
