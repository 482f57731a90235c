package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/codeindex/pkg/graph"
)

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func requiredString(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

func requiredNumber(args map[string]interface{}, key string) (float64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing required argument %q", key)
	}
	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("argument %q must be a number", key)
	}
	return n, nil
}

func optionalNumber(args map[string]interface{}, key string, def float64) float64 {
	v, ok := args[key]
	if !ok {
		return def
	}
	n, ok := v.(float64)
	if !ok {
		return def
	}
	return n
}

// handleFindDefinition implements the find_definition tool.
func (s *Server) handleFindDefinition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	filePath, err := requiredString(args, "file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	line, err := requiredNumber(args, "line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	character, err := requiredNumber(args, "character")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pos := graph.Position{Line: uint32(line), Character: uint32(character)}
	sym, ok := s.graph.FindDefinitionAt(filePath, pos)
	if !ok {
		return mcp.NewToolResultError("no symbol found at that position"), nil
	}
	return jsonResult(sym)
}

// handleFindReferences implements the find_references tool.
func (s *Server) handleFindReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	symbolID, err := requiredString(args, "symbol_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h, ok := s.graph.NodeByID(symbolID)
	if !ok {
		return mcp.NewToolResultError("unknown symbol id " + symbolID), nil
	}
	refs := s.graph.FindReferences(h)
	return jsonResult(refs)
}

// handleSearchSymbols implements the search_symbols tool.
func (s *Server) handleSearchSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	q, err := requiredString(args, "query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxResults := int(optionalNumber(args, "max_results", 0))

	if s.index == nil {
		return mcp.NewToolResultError("fuzzy search index is not available"), nil
	}
	results := s.index.Search(q, maxResults)
	return jsonResult(results)
}

// handleRunQuery implements the run_query tool.
func (s *Server) handleRunQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pattern, err := requiredString(args, "pattern")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches, err := s.engine.Execute(pattern)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(matches)
}

// handleCallHierarchy implements the call_hierarchy tool.
func (s *Server) handleCallHierarchy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	symbolID, err := requiredString(args, "symbol_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction, err := requiredString(args, "direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxDepth := int(optionalNumber(args, "max_depth", -1))

	var (
		syms []graph.Symbol
		hErr error
	)
	switch direction {
	case "incoming":
		syms, hErr = s.hierarchy.IncomingCalls(symbolID, maxDepth)
	case "outgoing":
		syms, hErr = s.hierarchy.OutgoingCalls(symbolID, maxDepth)
	default:
		return mcp.NewToolResultError(`direction must be "incoming" or "outgoing"`), nil
	}
	if hErr != nil {
		return mcp.NewToolResultError(hErr.Error()), nil
	}
	return jsonResult(syms)
}
