package query

import (
	"testing"
	"time"

	"github.com/gnana997/codeindex/pkg/graph"
)

func timeoutChan() <-chan time.Time {
	return time.After(2 * time.Second)
}

// buildScenario1 builds the graph from spec.md §8 Scenario 1: main calling
// helper in a single Rust file.
func buildScenario1() *graph.Graph {
	g := graph.New()
	main := g.AddSymbol(graph.Symbol{
		ID: "src/a.rs#1:main", Name: "main", Kind: graph.SymbolKindFunction, FilePath: "src/a.rs",
		Range: graph.Range{Start: graph.Position{Line: 0}, End: graph.Position{Line: 0, Character: 20}},
	})
	helper := g.AddSymbol(graph.Symbol{
		ID: "src/a.rs#2:helper", Name: "helper", Kind: graph.SymbolKindFunction, FilePath: "src/a.rs",
		Range: graph.Range{Start: graph.Position{Line: 1}, End: graph.Position{Line: 1, Character: 14}},
	})
	_ = g.AddEdge(main, helper, graph.EdgeKindReference)
	return g
}

func TestExecuteScenario4FunctionsCallingHelper(t *testing.T) {
	g := buildScenario1()
	e := NewEngine(g)

	matches, err := e.Execute("(f:Function)-[:Reference]->(h:Function)")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	found := false
	for _, m := range matches {
		if m.Bindings["f"].Name == "main" && m.Bindings["h"].Name == "helper" {
			found = true
			if len(m.Paths) != 1 || len(m.Paths[0]) != 2 {
				t.Fatalf("expected a two-symbol path, got %+v", m.Paths)
			}
		}
	}
	if !found {
		t.Fatalf("expected main->helper match, got %+v", matches)
	}
}

func TestExecuteSingleNodeNoRelationshipsReturnsEmptyPaths(t *testing.T) {
	g := buildScenario1()
	e := NewEngine(g)

	matches, err := e.Execute("(f:Function)")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(matches))
	}
	for _, m := range matches {
		if m.Paths != nil {
			t.Fatalf("expected no paths for a relationship-less pattern, got %+v", m.Paths)
		}
	}
}

func TestExecuteUnlabeledNodeMatchesAnyKind(t *testing.T) {
	g := graph.New()
	g.AddSymbol(graph.Symbol{ID: "a", Name: "A", Kind: graph.SymbolKindClass, FilePath: "f"})
	g.AddSymbol(graph.Symbol{ID: "b", Name: "B", Kind: graph.SymbolKindVariable, FilePath: "f"})
	e := NewEngine(g)

	matches, err := e.Execute("(n)")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches for unlabeled node, got %d", len(matches))
	}
}

func TestExecuteCycleWithUnboundedDepthTerminates(t *testing.T) {
	g := graph.New()
	a := g.AddSymbol(graph.Symbol{ID: "a", Name: "A", Kind: graph.SymbolKindFunction, FilePath: "f"})
	b := g.AddSymbol(graph.Symbol{ID: "b", Name: "B", Kind: graph.SymbolKindFunction, FilePath: "f"})
	c := g.AddSymbol(graph.Symbol{ID: "c", Name: "C", Kind: graph.SymbolKindFunction, FilePath: "f"})
	_ = g.AddEdge(a, b, graph.EdgeKindReference)
	_ = g.AddEdge(b, c, graph.EdgeKindReference)
	_ = g.AddEdge(c, a, graph.EdgeKindReference) // cycle back to a

	e := NewEngine(g)
	done := make(chan []Match, 1)
	go func() {
		m, err := e.Execute("(x:Function)-[:Reference*]->(y:Function)")
		if err != nil {
			t.Error(err)
		}
		done <- m
	}()

	select {
	case matches := <-done:
		if len(matches) == 0 {
			t.Fatal("expected matches from the cyclic graph")
		}
	case <-timeoutChan():
		t.Fatal("query did not terminate on a cyclic graph with unbounded depth")
	}
}

func TestResultCapIsRespected(t *testing.T) {
	g := graph.New()
	for i := 0; i < 50; i++ {
		g.AddSymbol(graph.Symbol{ID: string(rune('a' + i%26)) + itoaForTest(i), Name: "n", Kind: graph.SymbolKindFunction, FilePath: "f"})
	}
	e := NewEngine(g).WithResultCap(5)
	matches, err := e.Execute("(n:Function)")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 5 {
		t.Fatalf("expected cap of 5, got %d", len(matches))
	}
}

func itoaForTest(i int) string {
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{byte('0' + i%10)}, b...)
		i /= 10
	}
	return string(b)
}
