package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/codeindex/pkg/fuzzy"
	"github.com/gnana997/codeindex/pkg/graph"
	"github.com/gnana997/codeindex/pkg/hierarchy"
	"github.com/gnana997/codeindex/pkg/mcplog"
	"github.com/gnana997/codeindex/pkg/query"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server exposing this indexer's graph over
// stdio: definition/reference lookup, fuzzy symbol search, pattern
// queries, and call hierarchy.
type Server struct {
	mcpServer *server.MCPServer
	graph     *graph.Graph
	engine    *query.Engine
	index     *fuzzy.Index
	hierarchy *hierarchy.Service
	logger    *mcplog.Logger // may be nil if logging is disabled
}

// NewServer creates an MCP server backed by one indexed graph. logger may
// be nil to disable JSONL tool-call logging.
func NewServer(g *graph.Graph, idx *fuzzy.Index, logger *mcplog.Logger) *Server {
	s := &Server{
		graph:     g,
		engine:    query.NewEngine(g),
		index:     idx,
		hierarchy: hierarchy.NewService(g),
		logger:    logger,
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("codeindex", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: findDefinitionTool(), Handler: s.handleFindDefinition},
		server.ServerTool{Tool: findReferencesTool(), Handler: s.handleFindReferences},
		server.ServerTool{Tool: searchSymbolsTool(), Handler: s.handleSearchSymbols},
		server.ServerTool{Tool: runQueryTool(), Handler: s.handleRunQuery},
		server.ServerTool{Tool: callHierarchyTool(), Handler: s.handleCallHierarchy},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the logger if one is active. Should be deferred after NewServer.
func (s *Server) Close() error {
	if s.logger != nil {
		return s.logger.Close()
	}
	return nil
}
