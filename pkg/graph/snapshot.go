package graph

// Snapshot is the gob-serializable form of a Graph, used by pkg/store to
// persist and reload the index between runs. Edges are stored as flat
// triples rather than adjacency maps keyed by handle, since handles are
// not stable across a save/load round trip once tombstoned slots are
// compacted away.
type Snapshot struct {
	Symbols []Symbol
	Edges   []SnapshotEdge
}

// SnapshotEdge names endpoints by symbol id rather than handle, so a
// Snapshot can be reloaded into a fresh Graph whose handle numbering need
// not match the one that produced it.
type SnapshotEdge struct {
	FromID string
	ToID   string
	Kind   EdgeKind
}

// ToSnapshot captures the current live contents of g. Tombstoned nodes and
// their edges are dropped, compacting the representation.
func (g *Graph) ToSnapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := Snapshot{
		Symbols: make([]Symbol, 0, len(g.nodes)),
	}
	for _, n := range g.nodes {
		if n != nil {
			snap.Symbols = append(snap.Symbols, *n)
		}
	}
	for from, edges := range g.outgoing {
		fromSym := g.nodes[from]
		if fromSym == nil {
			continue
		}
		for _, e := range edges {
			toSym := g.nodes[e.to]
			if toSym == nil {
				continue
			}
			snap.Edges = append(snap.Edges, SnapshotEdge{
				FromID: fromSym.ID,
				ToID:   toSym.ID,
				Kind:   e.kind,
			})
		}
	}
	return snap
}

// FromSnapshot rebuilds a Graph from a previously captured Snapshot. Edges
// whose endpoints are missing from snap.Symbols are skipped rather than
// treated as an error, since a hand-edited or partially-imported snapshot
// (e.g. from LSIF import) may reasonably omit them.
func FromSnapshot(snap Snapshot) *Graph {
	g := New()
	for _, s := range snap.Symbols {
		g.AddSymbol(s)
	}
	for _, e := range snap.Edges {
		from, okFrom := g.NodeByID(e.FromID)
		to, okTo := g.NodeByID(e.ToID)
		if !okFrom || !okTo {
			continue
		}
		_ = g.AddEdge(from, to, e.Kind)
	}
	return g
}
