package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/codeindex/pkg/fuzzy"
	"github.com/gnana997/codeindex/pkg/graph"
)

// --- helpers ---

func testServer() *Server {
	g := graph.New()
	main := graph.Symbol{
		ID: "a.rs#1:main", Name: "main", Kind: graph.SymbolKindFunction, FilePath: "a.rs",
		Range: graph.Range{Start: graph.Position{Line: 0, Character: 0}, End: graph.Position{Line: 0, Character: 20}},
	}
	helper := graph.Symbol{
		ID: "a.rs#2:helper", Name: "helper", Kind: graph.SymbolKindFunction, FilePath: "a.rs",
		Range: graph.Range{Start: graph.Position{Line: 1, Character: 0}, End: graph.Position{Line: 1, Character: 13}},
	}
	g.AddSymbol(main)
	g.AddSymbol(helper)
	mh, _ := g.NodeByID(main.ID)
	hh, _ := g.NodeByID(helper.ID)
	_ = g.AddEdge(mh, hh, graph.EdgeKindReference)

	idx := fuzzy.BuildFromGraph(g)
	return NewServer(g, idx, nil)
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

// --- find_definition ---

func TestHandleFindDefinitionAtDeclaration(t *testing.T) {
	s := testServer()
	result, err := s.handleFindDefinition(context.Background(), makeRequest("find_definition", map[string]any{
		"file_path": "a.rs", "line": float64(1), "character": float64(5),
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	// helper has no outgoing Reference edge, so the symbol declared at the
	// position is returned itself.
	var sym graph.Symbol
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &sym))
	assert.Equal(t, "helper", sym.Name)
}

func TestHandleFindDefinitionNoSymbolAtPosition(t *testing.T) {
	s := testServer()
	// No symbol's range contains line 99, so the tool reports an error.
	result, err := s.handleFindDefinition(context.Background(), makeRequest("find_definition", map[string]any{
		"file_path": "a.rs", "line": float64(99), "character": float64(0),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleFindDefinitionMissingArgument(t *testing.T) {
	s := testServer()
	result, err := s.handleFindDefinition(context.Background(), makeRequest("find_definition", map[string]any{
		"line": float64(0), "character": float64(0),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- find_references ---

func TestHandleFindReferences(t *testing.T) {
	s := testServer()
	result, err := s.handleFindReferences(context.Background(), makeRequest("find_references", map[string]any{
		"symbol_id": "a.rs#2:helper",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var refs []graph.Symbol
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &refs))
	require.Len(t, refs, 1)
	assert.Equal(t, "main", refs[0].Name)
}

func TestHandleFindReferencesUnknownSymbol(t *testing.T) {
	s := testServer()
	result, err := s.handleFindReferences(context.Background(), makeRequest("find_references", map[string]any{
		"symbol_id": "nope#1:x",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- search_symbols ---

func TestHandleSearchSymbolsExactMatch(t *testing.T) {
	s := testServer()
	result, err := s.handleSearchSymbols(context.Background(), makeRequest("search_symbols", map[string]any{
		"query": "helper",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var results []fuzzy.Result
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "helper", results[0].Symbol.Name)
	assert.Equal(t, 100.0, results[0].Score)
}

// --- run_query ---

func TestHandleRunQuery(t *testing.T) {
	s := testServer()
	result, err := s.handleRunQuery(context.Background(), makeRequest("run_query", map[string]any{
		"pattern": "(f:Function)-[:Reference]->(g:Function)",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var matches []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &matches))
	require.NotEmpty(t, matches)
}

func TestHandleRunQueryInvalidPattern(t *testing.T) {
	s := testServer()
	result, err := s.handleRunQuery(context.Background(), makeRequest("run_query", map[string]any{
		"pattern": "",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- call_hierarchy ---

func TestHandleCallHierarchyOutgoing(t *testing.T) {
	s := testServer()
	result, err := s.handleCallHierarchy(context.Background(), makeRequest("call_hierarchy", map[string]any{
		"symbol_id": "a.rs#1:main", "direction": "outgoing",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var syms []graph.Symbol
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &syms))
	require.Len(t, syms, 1)
	assert.Equal(t, "helper", syms[0].Name)
}

func TestHandleCallHierarchyInvalidDirection(t *testing.T) {
	s := testServer()
	result, err := s.handleCallHierarchy(context.Background(), makeRequest("call_hierarchy", map[string]any{
		"symbol_id": "a.rs#1:main", "direction": "sideways",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
