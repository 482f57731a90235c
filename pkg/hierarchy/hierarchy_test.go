package hierarchy

import (
	"testing"

	"github.com/gnana997/codeindex/pkg/graph"
)

func mkFunc(id, name string) graph.Symbol {
	return graph.Symbol{ID: id, Name: name, Kind: graph.SymbolKindFunction, FilePath: "f.go"}
}

// buildChain wires main -> helper -> inner as a call chain via Reference
// edges (main calls helper, helper calls inner).
func buildChain(t *testing.T) (*graph.Graph, graph.Symbol, graph.Symbol, graph.Symbol) {
	t.Helper()
	g := graph.New()
	main := mkFunc("f.go#1:main", "main")
	helper := mkFunc("f.go#2:helper", "helper")
	inner := mkFunc("f.go#3:inner", "inner")
	g.AddSymbol(main)
	g.AddSymbol(helper)
	g.AddSymbol(inner)

	mh, _ := g.NodeByID(main.ID)
	hh, _ := g.NodeByID(helper.ID)
	ih, _ := g.NodeByID(inner.ID)
	if err := g.AddEdge(mh, hh, graph.EdgeKindReference); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(hh, ih, graph.EdgeKindReference); err != nil {
		t.Fatal(err)
	}
	return g, main, helper, inner
}

func TestOutgoingCallsFollowsChain(t *testing.T) {
	g, main, helper, inner := buildChain(t)
	svc := NewService(g)

	calls, err := svc.OutgoingCalls(main.ID, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected main to transitively call helper and inner, got %d: %+v", len(calls), calls)
	}
	names := map[string]bool{}
	for _, c := range calls {
		names[c.Name] = true
	}
	if !names[helper.Name] || !names[inner.Name] {
		t.Fatalf("expected helper and inner in outgoing calls, got %v", names)
	}
}

func TestOutgoingCallsRespectsMaxDepth(t *testing.T) {
	g, main, helper, _ := buildChain(t)
	svc := NewService(g)

	calls, err := svc.OutgoingCalls(main.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || calls[0].Name != helper.Name {
		t.Fatalf("expected only direct call (helper) at depth 1, got %+v", calls)
	}
}

func TestIncomingCallsFindsCallers(t *testing.T) {
	g, main, helper, inner := buildChain(t)
	svc := NewService(g)

	callers, err := svc.IncomingCalls(inner.ID, -1)
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, c := range callers {
		names[c.Name] = true
	}
	if !names[helper.Name] || !names[main.Name] {
		t.Fatalf("expected both helper and main as transitive callers of inner, got %v", names)
	}
}

func TestIncomingCallsUnknownSymbolErrors(t *testing.T) {
	g := graph.New()
	svc := NewService(g)
	if _, err := svc.IncomingCalls("nope#1:x", -1); err == nil {
		t.Fatal("expected error for unknown symbol id")
	}
}

func TestCallPathsFindsSimplePath(t *testing.T) {
	g, main, _, inner := buildChain(t)
	svc := NewService(g)

	paths, err := svc.CallPaths(main.ID, inner.ID, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected exactly one simple path main->inner, got %d", len(paths))
	}
	if len(paths[0]) != 3 {
		t.Fatalf("expected path of length 3 (main, helper, inner), got %d", len(paths[0]))
	}
	if paths[0][0].ID != main.ID || paths[0][2].ID != inner.ID {
		t.Fatalf("unexpected path endpoints: %+v", paths[0])
	}
}

func TestCallPathsNoPathReturnsEmpty(t *testing.T) {
	g, main, _, inner := buildChain(t)
	svc := NewService(g)

	paths, err := svc.CallPaths(inner.ID, main.ID, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no path from inner back to main, got %d", len(paths))
	}
}

func TestCallPathsTerminatesOnCycle(t *testing.T) {
	g, main, helper, inner := buildChain(t)
	// Close the loop: inner calls main, making a cycle.
	ih, _ := g.NodeByID(inner.ID)
	mh, _ := g.NodeByID(main.ID)
	if err := g.AddEdge(ih, mh, graph.EdgeKindReference); err != nil {
		t.Fatal(err)
	}
	svc := NewService(g)

	paths, err := svc.CallPaths(main.ID, helper.ID, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected exactly one simple path despite the cycle, got %d", len(paths))
	}
}

func TestSupertypesAndSubtypes(t *testing.T) {
	g := graph.New()
	impl := graph.Symbol{ID: "f.go#1:Impl", Name: "Impl", Kind: graph.SymbolKindClass, FilePath: "f.go"}
	iface := graph.Symbol{ID: "f.go#2:Iface", Name: "Iface", Kind: graph.SymbolKindInterface, FilePath: "f.go"}
	g.AddSymbol(impl)
	g.AddSymbol(iface)
	implH, _ := g.NodeByID(impl.ID)
	ifaceH, _ := g.NodeByID(iface.ID)
	if err := g.AddEdge(implH, ifaceH, graph.EdgeKindImplementation); err != nil {
		t.Fatal(err)
	}

	svc := NewService(g)

	supers, err := svc.Supertypes(impl.ID, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(supers) != 1 || supers[0].ID != iface.ID {
		t.Fatalf("expected Iface as Impl's supertype, got %+v", supers)
	}

	subs, err := svc.Subtypes(iface.ID, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].ID != impl.ID {
		t.Fatalf("expected Impl as Iface's subtype, got %+v", subs)
	}
}
