package mcp

import (
	"sync/atomic"

	"github.com/mark3labs/mcp-go/server"

	"github.com/passport-ui/passport/pkg/mcplog"
	"github.com/passport-ui/passport/pkg/sitegen"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for Passport, exposing registry,
// navigation and breadcrumb lookups as tools.
type Server struct {
	mcpServer *server.MCPServer
	current   atomic.Pointer[sitegen.Generator]
	logger    *mcplog.Logger // nil disables call logging
}

// NewServer creates an MCP server backed by gen. A nil logger disables
// JSONL call logging.
func NewServer(gen *sitegen.Generator, logger *mcplog.Logger) *Server {
	s := &Server{logger: logger}
	s.current.Store(gen)

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("passport", serverVersion, opts...)

	tools := s.tools()
	serverTools := make([]server.ServerTool, len(tools))
	for i, t := range tools {
		serverTools[i] = server.ServerTool{Tool: t.tool, Handler: t.handler}
	}
	s.mcpServer.AddTools(serverTools...)

	return s
}

// Swap replaces the site the tools answer from.
func (s *Server) Swap(gen *sitegen.Generator) {
	s.current.Store(gen)
}

// Generator returns the generator currently backing the tools.
func (s *Server) Generator() *sitegen.Generator {
	return s.current.Load()
}

// MCPServer exposes the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
