package indexer

import (
	"github.com/gnana997/codeindex/pkg/graph"
)

// applyReferencesStep implements spec.md §4.D's References step for one
// changed file: for every symbol in the whole graph, find textual
// occurrences of its name in content that lie outside any symbol's own
// declaration point and outside a comment/string literal, then attribute
// each occurrence to its smallest enclosing symbol within this file and
// add a Reference edge enclosing -> target. Name-based and intentionally
// over-approximating: two unrelated symbols sharing a name both receive a
// Reference edge from the same occurrence.
func applyReferencesStep(g *graph.Graph, filePath string, content []byte, lang string) {
	fileSymbols := g.SymbolsInFile(filePath)
	if len(fileSymbols) == 0 {
		return
	}

	// declLines maps a symbol's name to the line its own declaration
	// starts on in this file. Neither extractor backend reports the
	// exact column of the name identifier (regexextract anchors
	// Range.Start at column 0; tsextract anchors it at the declaration
	// node's start, e.g. the "function" keyword) — but both put the name
	// token itself on that starting line, so a declaration occurrence is
	// recognized by falling on Range.Start.Line rather than by exact
	// Position equality. This intentionally only covers the declaration
	// line, not the symbol's whole body range: a recursive call to a
	// symbol from within its own body is a real reference and must still
	// be recorded.
	declLines := make(map[string]map[uint32]bool)
	for _, s := range fileSymbols {
		if declLines[s.Name] == nil {
			declLines[s.Name] = make(map[uint32]bool)
		}
		declLines[s.Name][s.Range.Start.Line] = true
	}

	nameIndex := buildNameIndex(g)

	for _, tok := range ClassifyIdentifiers(content, lang) {
		targets, ok := nameIndex[tok.Name]
		if !ok {
			continue
		}
		if declLines[tok.Name][tok.Pos.Line] {
			continue // on the declaring symbol's own declaration line
		}

		enclosing, ok := smallestEnclosingOf(fileSymbols, tok.Pos)
		if !ok {
			continue
		}
		enclosingHandle, ok := g.NodeByID(enclosing.ID)
		if !ok {
			continue
		}

		for _, targetHandle := range targets {
			_ = g.AddEdge(enclosingHandle, targetHandle, graph.EdgeKindReference)
		}
	}
}

// buildNameIndex maps every live symbol's name to the handles of every
// symbol sharing that name, across the whole graph.
func buildNameIndex(g *graph.Graph) map[string][]graph.NodeHandle {
	idx := make(map[string][]graph.NodeHandle)
	for _, s := range g.AllSymbols() {
		h, ok := g.NodeByID(s.ID)
		if !ok {
			continue
		}
		idx[s.Name] = append(idx[s.Name], h)
	}
	return idx
}

// smallestEnclosingOf finds, among candidates (all symbols of one file),
// the smallest range containing pos. Ties are broken by lexicographically
// smallest id (spec.md §4.D ordering/tie-break rule).
func smallestEnclosingOf(candidates []graph.Symbol, pos graph.Position) (graph.Symbol, bool) {
	var best graph.Symbol
	var bestSize int64 = -1
	found := false

	for _, s := range candidates {
		if !s.Range.Contains(pos) {
			continue
		}
		size := s.Range.Size()
		switch {
		case !found, size < bestSize:
			best, bestSize, found = s, size, true
		case size == bestSize && s.ID < best.ID:
			best = s
		}
	}
	return best, found
}
