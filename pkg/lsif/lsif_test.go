package lsif

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gnana997/codeindex/pkg/graph"
)

func buildSample(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	main := graph.Symbol{
		ID: "a.rs#1:main", Name: "main", Kind: graph.SymbolKindFunction, FilePath: "a.rs",
		Range: graph.Range{Start: graph.Position{Line: 0, Character: 0}, End: graph.Position{Line: 0, Character: 20}},
	}
	helper := graph.Symbol{
		ID: "a.rs#2:helper", Name: "helper", Kind: graph.SymbolKindFunction, FilePath: "a.rs",
		Range:         graph.Range{Start: graph.Position{Line: 1, Character: 0}, End: graph.Position{Line: 1, Character: 13}},
		Documentation: "helper does the work",
	}
	g.AddSymbol(main)
	g.AddSymbol(helper)
	mh, _ := g.NodeByID(main.ID)
	hh, _ := g.NodeByID(helper.ID)
	if err := g.AddEdge(mh, hh, graph.EdgeKindReference); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestExportProducesValidJSONLines(t *testing.T) {
	g := buildSample(t)
	var buf bytes.Buffer
	if err := Export(g, &buf); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) == 0 {
		t.Fatal("expected at least one line of output")
	}
	sawMetaData := false
	for _, line := range lines {
		var v map[string]interface{}
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			t.Fatalf("line is not valid JSON: %q: %v", line, err)
		}
		if v["label"] == labelMetaData {
			sawMetaData = true
		}
	}
	if !sawMetaData {
		t.Fatal("expected a metaData vertex in the output")
	}
}

func TestExportImportRoundTripPreservesSymbolsAndReferenceEdges(t *testing.T) {
	g := buildSample(t)
	var buf bytes.Buffer
	if err := Export(g, &buf); err != nil {
		t.Fatal(err)
	}

	imported, err := Import(&buf)
	if err != nil {
		t.Fatal(err)
	}

	names := map[string]graph.Symbol{}
	for _, s := range imported.AllSymbols() {
		names[s.Name] = s
	}
	main, ok := names["main"]
	if !ok {
		t.Fatal("expected main to survive the round trip")
	}
	helper, ok := names["helper"]
	if !ok {
		t.Fatal("expected helper to survive the round trip")
	}
	if main.FilePath != "a.rs" || helper.FilePath != "a.rs" {
		t.Fatalf("expected file paths preserved, got main=%q helper=%q", main.FilePath, helper.FilePath)
	}

	mh, _ := imported.NodeByID(main.ID)
	refs := imported.Outgoing(mh, graph.EdgeKindReference)
	if len(refs) != 1 {
		t.Fatalf("expected the Reference edge main->helper to survive round trip, got %d edges", len(refs))
	}
	target, _ := imported.GetSymbol(refs[0])
	if target.ID != helper.ID {
		t.Fatalf("expected reference to point at helper, got %+v", target)
	}
}

func TestImportSkipsUnknownLabels(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"1","type":"vertex","label":"metaData","version":"0.5.0"}`,
		`{"id":"2","type":"vertex","label":"someFutureLabel","whatever":42}`,
		`{"id":"3","type":"vertex","label":"document","uri":"file://b.go"}`,
		`{"id":"4","type":"vertex","label":"range","start":{"line":0,"character":0},"end":{"line":0,"character":4},"tag":{"text":"Foo","kind":"Function"}}`,
		`{"id":"5","type":"edge","label":"contains","outV":"3","inV":"4"}`,
	}, "\n")

	g, err := Import(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unknown label should not be a hard error: %v", err)
	}
	syms := g.AllSymbols()
	if len(syms) != 1 || syms[0].Name != "Foo" {
		t.Fatalf("expected exactly one recovered symbol Foo, got %+v", syms)
	}
}
