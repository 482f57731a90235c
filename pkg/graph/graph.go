package graph

import "sync"

// edge is an internal directed edge record between two node slots.
type edge struct {
	from NodeHandle
	to   NodeHandle
	kind EdgeKind
}

// Graph is a typed directed multigraph of Symbols. It is the in-memory
// analog of the original lsif-indexer's petgraph::StableDiGraph: node slots
// are never reused once tombstoned, so handles taken before a removal stay
// valid to detect (and reject) for any node other than the removed one.
//
// Graph is safe for concurrent read access via RWMutex, but callers that
// need a stable view across a sequence of reads (e.g. the query engine
// executing a multi-hop pattern) should hold their own snapshot of the
// relevant handles rather than relying on the mutex across calls.
type Graph struct {
	mu sync.RWMutex

	nodes    []*Symbol        // index = NodeHandle; nil = tombstoned or never used
	byID     map[string]NodeHandle
	outgoing map[NodeHandle][]edge
	incoming map[NodeHandle][]edge
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		byID:     make(map[string]NodeHandle),
		outgoing: make(map[NodeHandle][]edge),
		incoming: make(map[NodeHandle][]edge),
	}
}

// AddSymbol inserts sym, replacing any existing symbol with the same ID in
// place (same handle, edges preserved) so callers performing a content-only
// update don't have to re-wire relationships. It returns the node's handle.
func (g *Graph) AddSymbol(sym Symbol) NodeHandle {
	g.mu.Lock()
	defer g.mu.Unlock()

	if h, ok := g.byID[sym.ID]; ok && g.nodes[h] != nil {
		cp := sym
		g.nodes[h] = &cp
		return h
	}

	cp := sym
	h := NodeHandle(len(g.nodes))
	g.nodes = append(g.nodes, &cp)
	g.byID[sym.ID] = h
	return h
}

// RemoveSymbol tombstones the node for id, along with every edge incident
// to it. It is a no-op, returning false, if id is not present.
func (g *Graph) RemoveSymbol(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	h, ok := g.byID[id]
	if !ok || g.nodes[h] == nil {
		return false
	}

	for _, e := range g.outgoing[h] {
		g.incoming[e.to] = removeEdge(g.incoming[e.to], h, e.to, e.kind)
	}
	for _, e := range g.incoming[h] {
		g.outgoing[e.from] = removeEdge(g.outgoing[e.from], e.from, h, e.kind)
	}
	delete(g.outgoing, h)
	delete(g.incoming, h)
	delete(g.byID, id)
	g.nodes[h] = nil
	return true
}

func removeEdge(edges []edge, from, to NodeHandle, kind EdgeKind) []edge {
	out := edges[:0]
	for _, e := range edges {
		if e.from == from && e.to == to && e.kind == kind {
			continue
		}
		out = append(out, e)
	}
	return out
}

// AddEdge connects from -> to with kind. Both handles must reference live
// nodes; AddEdge returns an InvariantError otherwise. Duplicate edges
// (same from, to, kind) are permitted — the graph is a multigraph — and
// are simply added again.
func (g *Graph) AddEdge(from, to NodeHandle, kind EdgeKind) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isLive(from) {
		return newInvariantErr("AddEdge", "from handle does not reference a live node")
	}
	if !g.isLive(to) {
		return newInvariantErr("AddEdge", "to handle does not reference a live node")
	}

	e := edge{from: from, to: to, kind: kind}
	g.outgoing[from] = append(g.outgoing[from], e)
	g.incoming[to] = append(g.incoming[to], e)
	return nil
}

func (g *Graph) isLive(h NodeHandle) bool {
	return h >= 0 && int(h) < len(g.nodes) && g.nodes[h] != nil
}

// NodeByID resolves a symbol id to its handle, ok is false if not present
// or tombstoned.
func (g *Graph) NodeByID(id string) (NodeHandle, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.byID[id]
	if !ok || g.nodes[h] == nil {
		return invalidHandle, false
	}
	return h, true
}

// GetSymbol returns a copy of the symbol at handle h.
func (g *Graph) GetSymbol(h NodeHandle) (Symbol, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.isLive(h) {
		return Symbol{}, false
	}
	return *g.nodes[h], true
}

// AllSymbols returns every live symbol in the graph. The order is stable
// across calls (ascending handle order) but is not meaningful otherwise.
func (g *Graph) AllSymbols() []Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Symbol, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n != nil {
			out = append(out, *n)
		}
	}
	return out
}

// Len returns the number of live symbols.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, s := range g.nodes {
		if s != nil {
			n++
		}
	}
	return n
}

// Outgoing returns the handles reachable from h via edges of kind. If kind
// is empty, every outgoing edge is returned regardless of kind.
func (g *Graph) Outgoing(h NodeHandle, kind EdgeKind) []NodeHandle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []NodeHandle
	for _, e := range g.outgoing[h] {
		if kind == "" || e.kind == kind {
			out = append(out, e.to)
		}
	}
	return out
}

// Incoming returns the handles that reach h via edges of kind. If kind is
// empty, every incoming edge is returned regardless of kind.
func (g *Graph) Incoming(h NodeHandle, kind EdgeKind) []NodeHandle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []NodeHandle
	for _, e := range g.incoming[h] {
		if kind == "" || e.kind == kind {
			out = append(out, e.from)
		}
	}
	return out
}

// FindDefinition returns the definition-kind symbol reachable from a
// reference node, if any. References are expected to have exactly one
// outgoing EdgeKindDefinition edge; if there are several (a malformed or
// merged index), the first is returned.
func (g *Graph) FindDefinition(ref NodeHandle) (Symbol, bool) {
	defs := g.Outgoing(ref, EdgeKindDefinition)
	if len(defs) == 0 {
		return Symbol{}, false
	}
	return g.GetSymbol(defs[0])
}

// FindReferences returns every symbol with a Reference edge pointing at
// def's definition.
func (g *Graph) FindReferences(def NodeHandle) []Symbol {
	return g.symbolsFor(g.Incoming(def, EdgeKindReference))
}

// FindImplementations returns every symbol that implements the interface
// or abstract type at def.
func (g *Graph) FindImplementations(def NodeHandle) []Symbol {
	return g.symbolsFor(g.Incoming(def, EdgeKindImplementation))
}

// FindOverrides returns every symbol that overrides the method at def.
func (g *Graph) FindOverrides(def NodeHandle) []Symbol {
	return g.symbolsFor(g.Incoming(def, EdgeKindOverride))
}

func (g *Graph) symbolsFor(handles []NodeHandle) []Symbol {
	out := make([]Symbol, 0, len(handles))
	for _, h := range handles {
		if s, ok := g.GetSymbol(h); ok {
			out = append(out, s)
		}
	}
	return out
}

// FindDefinitionAt returns the most specific symbol whose range contains
// pos within filePath — "most specific" meaning the smallest enclosing
// range, so a method body position resolves to the method, not its
// enclosing class. If that symbol carries an outgoing Reference edge (it
// is itself a use site, not a declaration), the referred definition is
// returned instead; otherwise the symbol itself is returned.
func (g *Graph) FindDefinitionAt(filePath string, pos Position) (Symbol, bool) {
	h, sym, ok := g.smallestEnclosing(filePath, pos)
	if !ok {
		return Symbol{}, false
	}

	refs := g.Outgoing(h, EdgeKindReference)
	if len(refs) > 0 {
		if target, ok := g.GetSymbol(refs[0]); ok {
			return target, true
		}
	}
	return sym, true
}

// smallestEnclosing finds the live symbol in filePath with the smallest
// range containing pos, breaking ties by lexicographically smallest id
// (spec.md §4.D), matching pkg/indexer.smallestEnclosingOf.
func (g *Graph) smallestEnclosing(filePath string, pos Position) (NodeHandle, Symbol, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var best *Symbol
	var bestHandle NodeHandle = invalidHandle
	var bestSize int64 = -1
	for h, n := range g.nodes {
		if n == nil || n.FilePath != filePath {
			continue
		}
		if !n.Range.Contains(pos) {
			continue
		}
		size := n.Range.Size()
		switch {
		case best == nil, size < bestSize:
			cp := *n
			best = &cp
			bestHandle = NodeHandle(h)
			bestSize = size
		case size == bestSize && n.ID < best.ID:
			cp := *n
			best = &cp
			bestHandle = NodeHandle(h)
		}
	}
	if best == nil {
		return invalidHandle, Symbol{}, false
	}
	return bestHandle, *best, true
}

// SymbolsInFile returns every live symbol whose FilePath equals filePath.
func (g *Graph) SymbolsInFile(filePath string) []Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Symbol
	for _, n := range g.nodes {
		if n != nil && n.FilePath == filePath {
			out = append(out, *n)
		}
	}
	return out
}
