package indexer

import "github.com/gnana997/codeindex/pkg/graph"

// addContainsEdges wires a Contains edge to each symbol in syms from its
// smallest strictly-enclosing sibling, so the graph records lexical
// nesting (a method Contains-child-of its class, say) the way spec.md
// §4.G's graph model expects. syms must already be present in g. Ties
// (equal-size enclosing candidates) are broken by lexicographically
// smallest id, matching the References step's tie-break rule.
func addContainsEdges(g *graph.Graph, syms []graph.Symbol) {
	for _, child := range syms {
		parent, ok := smallestStrictEnclosing(syms, child)
		if !ok {
			continue
		}
		parentHandle, ok := g.NodeByID(parent.ID)
		if !ok {
			continue
		}
		childHandle, ok := g.NodeByID(child.ID)
		if !ok {
			continue
		}
		_ = g.AddEdge(parentHandle, childHandle, graph.EdgeKindContains)
	}
}

func smallestStrictEnclosing(candidates []graph.Symbol, child graph.Symbol) (graph.Symbol, bool) {
	var best graph.Symbol
	var bestSize int64 = -1
	found := false

	for _, cand := range candidates {
		if cand.ID == child.ID {
			continue
		}
		if !rangeEncloses(cand.Range, child.Range) {
			continue
		}
		size := cand.Range.Size()
		switch {
		case !found, size < bestSize:
			best, bestSize, found = cand, size, true
		case size == bestSize && cand.ID < best.ID:
			best = cand
		}
	}
	return best, found
}

// rangeEncloses reports whether child falls entirely within parent,
// inclusive of equal endpoints (unlike Range.Contains, which is a
// half-open point test).
func rangeEncloses(parent, child graph.Range) bool {
	if !posLessOrEqual(parent.Start, child.Start) {
		return false
	}
	if !posLessOrEqual(child.End, parent.End) {
		return false
	}
	return parent.Start != child.Start || parent.End != child.End
}

func posLessOrEqual(a, b graph.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character <= b.Character
}
