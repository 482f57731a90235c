package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gnana997/codeindex/pkg/fuzzy"
	"github.com/gnana997/codeindex/pkg/hierarchy"
	"github.com/gnana997/codeindex/pkg/query"
)

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// runQuery executes one Cypher-subset pattern against the persisted graph.
func runQuery(args []string) error {
	fs := newFlagSet("query")
	root := fs.String("root", ".", "project root")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pattern := fs.Arg(0)
	if pattern == "" {
		return fmt.Errorf("usage: codeindex query <pattern> [-root path]")
	}

	projectRoot, err := resolveProjectRoot(*root)
	if err != nil {
		return err
	}
	st, err := openStoreReadOnly(projectRoot)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	g, err := loadGraph(st)
	if err != nil {
		return err
	}

	matches, err := query.NewEngine(g).Execute(pattern)
	if err != nil {
		return fmt.Errorf("execute pattern: %w", err)
	}
	return printJSON(matches)
}

// runSearch fuzzy-searches symbol names in the persisted graph.
func runSearch(args []string) error {
	fs := newFlagSet("search")
	root := fs.String("root", ".", "project root")
	maxResults := fs.Int("max-results", fuzzy.DefaultMaxResults, "maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := fs.Arg(0)
	if text == "" {
		return fmt.Errorf("usage: codeindex search <text> [-root path] [-max-results n]")
	}

	projectRoot, err := resolveProjectRoot(*root)
	if err != nil {
		return err
	}
	st, err := openStoreReadOnly(projectRoot)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	g, err := loadGraph(st)
	if err != nil {
		return err
	}

	idx := fuzzy.BuildFromGraph(g)
	return printJSON(idx.Search(text, *maxResults))
}

// runHierarchy prints the incoming/outgoing call hierarchy, or the
// super/subtype hierarchy, for one symbol id.
func runHierarchy(args []string) error {
	fs := newFlagSet("hierarchy")
	root := fs.String("root", ".", "project root")
	kind := fs.String("kind", "call", `"call" or "type"`)
	direction := fs.String("direction", "outgoing", `"incoming"/"outgoing" (call) or "up"/"down" (type)`)
	maxDepth := fs.Int("max-depth", -1, "depth limit in hops; negative for unbounded")
	if err := fs.Parse(args); err != nil {
		return err
	}
	symbolID := fs.Arg(0)
	if symbolID == "" {
		return fmt.Errorf("usage: codeindex hierarchy <symbol_id> [-kind call|type] [-direction ...] [-max-depth n]")
	}

	projectRoot, err := resolveProjectRoot(*root)
	if err != nil {
		return err
	}
	st, err := openStoreReadOnly(projectRoot)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	g, err := loadGraph(st)
	if err != nil {
		return err
	}
	svc := hierarchy.NewService(g)

	switch *kind {
	case "call":
		if *direction == "incoming" {
			res, err := svc.IncomingCalls(symbolID, *maxDepth)
			if err != nil {
				return err
			}
			return printJSON(res)
		}
		res, err := svc.OutgoingCalls(symbolID, *maxDepth)
		if err != nil {
			return err
		}
		return printJSON(res)
	case "type":
		if *direction == "up" {
			res, err := svc.Supertypes(symbolID, *maxDepth)
			if err != nil {
				return err
			}
			return printJSON(res)
		}
		res, err := svc.Subtypes(symbolID, *maxDepth)
		if err != nil {
			return err
		}
		return printJSON(res)
	default:
		return fmt.Errorf(`-kind must be "call" or "type", got %q`, *kind)
	}
}
