package main

import (
	"fmt"
	"os"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "init":
		err = runInit(args)
	case "index":
		err = runIndex(args)
	case "query":
		err = runQuery(args)
	case "search":
		err = runSearch(args)
	case "hierarchy":
		err = runHierarchy(args)
	case "export":
		err = runExport(args)
	case "import":
		err = runImport(args)
	case "serve":
		err = runServe(args)
	case "watch":
		err = runWatch(args)
	case "version":
		fmt.Printf("codeindex %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "codeindex %s: %v\n", command, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: codeindex <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init       [path]            Create the .codeindex store for a project (default: current directory)")
	fmt.Println("  index      [path]            Run a differential indexing pass")
	fmt.Println("  query      <pattern>         Run a graph pattern query")
	fmt.Println("  search     <text>            Fuzzy-search symbol names")
	fmt.Println("  hierarchy  <symbol_id>        Show call or type hierarchy for a symbol")
	fmt.Println("  export     <file.lsif>       Export the graph as LSIF")
	fmt.Println("  import     <file.lsif>       Import a graph from LSIF, replacing the store's graph")
	fmt.Println("  serve                        Start the MCP server over stdio")
	fmt.Println("  watch      [path]            Watch the project and reindex on change")
	fmt.Println("  version                      Print version")
	fmt.Println("  help                         Show this help message")
}
