package mcp

import "github.com/mark3labs/mcp-go/mcp"

// findDefinitionTool locates the defining symbol at a file position,
// following one outgoing Reference hop if the position lands on a use
// rather than a declaration (spec.md §4.G).
func findDefinitionTool() mcp.Tool {
	return mcp.NewTool("find_definition",
		mcp.WithDescription("Finds the defining symbol at a file position, following one reference hop if the position is a use rather than a declaration."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Project-relative file path")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("0-based line number")),
		mcp.WithNumber("character", mcp.Required(), mcp.Description("0-based character offset")),
	)
}

// findReferencesTool lists every symbol holding a Reference edge to a
// given symbol id.
func findReferencesTool() mcp.Tool {
	return mcp.NewTool("find_references",
		mcp.WithDescription("Lists every symbol that references the given symbol id."),
		mcp.WithString("symbol_id", mcp.Required(), mcp.Description("Symbol id, e.g. path/to/file.go#12:Foo")),
	)
}

// searchSymbolsTool runs a fuzzy search over every indexed symbol name.
func searchSymbolsTool() mcp.Tool {
	return mcp.NewTool("search_symbols",
		mcp.WithDescription("Fuzzy-searches symbol names, ranked by match quality (exact, prefix, camel-abbreviation, substring, n-gram, Levenshtein)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("max_results", mcp.Description("Maximum results to return (default 20)")),
	)
}

// runQueryTool executes one Cypher-subset graph pattern.
func runQueryTool() mcp.Tool {
	return mcp.NewTool("run_query",
		mcp.WithDescription("Executes a Cypher-subset graph pattern against the indexed symbol graph, e.g. (f:Function)-[:Reference]->(g:Function)."),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("Pattern string")),
	)
}

// callHierarchyTool returns incoming or outgoing calls for a symbol.
func callHierarchyTool() mcp.Tool {
	return mcp.NewTool("call_hierarchy",
		mcp.WithDescription("Returns incoming or outgoing calls for a symbol, up to a depth limit."),
		mcp.WithString("symbol_id", mcp.Required(), mcp.Description("Symbol id")),
		mcp.WithString("direction", mcp.Required(), mcp.Description(`"incoming" or "outgoing"`)),
		mcp.WithNumber("max_depth", mcp.Description("Depth limit in hops; omit for unbounded")),
	)
}
