package query

import (
	"github.com/gnana997/codeindex/pkg/codeindexerr"
	"github.com/gnana997/codeindex/pkg/graph"
)

// DefaultResultCap bounds the number of matches Execute returns, per
// spec.md §4.Q's complexity ceiling.
const DefaultResultCap = 20

// Match is one binding of pattern variables to symbols plus the traversal
// paths that produced it.
type Match struct {
	Bindings map[string]graph.Symbol
	Paths    [][]graph.Symbol
}

// Engine executes parsed Patterns against a *graph.Graph.
type Engine struct {
	g        *graph.Graph
	resultCap int
}

// NewEngine returns an Engine over g with the default result cap. Use
// WithResultCap to override it.
func NewEngine(g *graph.Graph) *Engine {
	return &Engine{g: g, resultCap: DefaultResultCap}
}

// WithResultCap returns a copy of e with a different per-query result cap.
func (e *Engine) WithResultCap(n int) *Engine {
	cp := *e
	cp.resultCap = n
	return &cp
}

// Execute parses src and runs it against the engine's graph. A pattern
// with a single node and no relationships returns the matching candidates
// as bindings with an empty path list (spec.md §8 boundary behavior).
func (e *Engine) Execute(src string) ([]Match, error) {
	pat, err := Parse(src)
	if err != nil {
		return nil, codeindexerr.New(codeindexerr.KindQuery, "parse pattern", err)
	}
	return e.ExecutePattern(pat)
}

// ExecutePattern runs an already-parsed Pattern.
func (e *Engine) ExecutePattern(pat *Pattern) ([]Match, error) {
	if len(pat.Nodes) == 0 {
		return nil, codeindexerr.New(codeindexerr.KindQuery, "empty pattern", nil)
	}

	candidates := e.candidatesFor(pat.Nodes[0])

	// partial tracks one in-progress match: the handle of the node
	// pattern currently being extended, the variable bindings collected
	// so far, and the single chain of symbols traversed (node 0..k).
	type partial struct {
		curHandle graph.NodeHandle
		bindings  map[string]graph.Symbol
		path      []graph.Symbol
	}

	frontier := make([]partial, 0, len(candidates))
	for _, c := range candidates {
		b := map[string]graph.Symbol{}
		if pat.Nodes[0].Var != "" {
			b[pat.Nodes[0].Var] = c.sym
		}
		frontier = append(frontier, partial{curHandle: c.handle, bindings: b, path: []graph.Symbol{c.sym}})
	}

	for i, rel := range pat.Rels {
		nextNodePat := pat.Nodes[i+1]
		var next []partial
		for _, pfx := range frontier {
			for _, ext := range e.extend(pfx.curHandle, rel, nextNodePat) {
				b := cloneBindings(pfx.bindings)
				if nextNodePat.Var != "" {
					b[nextNodePat.Var] = ext.endpoints[len(ext.endpoints)-1]
				}
				next = append(next, partial{
					curHandle: ext.endHandle,
					bindings:  b,
					path:      append(append([]graph.Symbol{}, pfx.path...), ext.endpoints...),
				})
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	matches := make([]Match, 0, len(frontier))
	for _, pfx := range frontier {
		m := Match{Bindings: pfx.bindings}
		if len(pat.Rels) > 0 {
			m.Paths = [][]graph.Symbol{pfx.path}
		}
		matches = append(matches, m)
		if len(matches) >= e.resultCap {
			break
		}
	}
	return matches, nil
}

func cloneBindings(m map[string]graph.Symbol) map[string]graph.Symbol {
	out := make(map[string]graph.Symbol, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type candidate struct {
	handle graph.NodeHandle
	sym    graph.Symbol
}

// candidatesFor returns every live symbol matching np's label filter. An
// empty label matches every kind.
func (e *Engine) candidatesFor(np NodePattern) []candidate {
	var out []candidate
	for _, s := range e.g.AllSymbols() {
		if np.Label != "" && string(s.Kind) != np.Label {
			continue
		}
		h, ok := e.g.NodeByID(s.ID)
		if !ok {
			continue
		}
		out = append(out, candidate{handle: h, sym: s})
	}
	return out
}

// extension is one way to reach a matching endpoint from a start node
// along rel, carrying the intermediate chain of symbols traversed
// (excluding the start, including the endpoint) for path reporting.
type extension struct {
	endHandle graph.NodeHandle
	endpoints []graph.Symbol
}

// extend performs a depth-bounded BFS from start along rel, honoring
// direction and edge-kind filter, and returns every distinct endpoint
// (deduplicated by id) whose symbol matches nextNode's label filter. The
// BFS always terminates because the visited set is keyed by node id even
// when rel.Depth.Max is unbounded (spec.md §4.Q's complexity ceiling).
func (e *Engine) extend(start graph.NodeHandle, rel RelPattern, nextNode NodePattern) []extension {
	type frame struct {
		handle graph.NodeHandle
		depth  int
		path   []graph.Symbol
	}

	visited := map[graph.NodeHandle]bool{start: true}
	queue := []frame{{handle: start, depth: 0, path: nil}}
	seenEndpoints := map[string]bool{}
	var out []extension

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= rel.Depth.Min && cur.depth > 0 {
			sym, ok := e.g.GetSymbol(cur.handle)
			if ok && (nextNode.Label == "" || string(sym.Kind) == nextNode.Label) {
				if !seenEndpoints[sym.ID] {
					seenEndpoints[sym.ID] = true
					out = append(out, extension{endHandle: cur.handle, endpoints: append([]graph.Symbol{}, cur.path...)})
				}
			}
		}

		if cur.depth >= rel.Depth.Max {
			continue
		}

		neighbors := e.neighbors(cur.handle, rel)
		for _, nh := range neighbors {
			if visited[nh] {
				continue
			}
			visited[nh] = true
			sym, ok := e.g.GetSymbol(nh)
			if !ok {
				continue
			}
			queue = append(queue, frame{handle: nh, depth: cur.depth + 1, path: append(append([]graph.Symbol{}, cur.path...), sym)})
		}
	}
	return out
}

// neighbors returns the handles reachable from h in one hop of rel,
// honoring direction.
func (e *Engine) neighbors(h graph.NodeHandle, rel RelPattern) []graph.NodeHandle {
	kind := graph.EdgeKind(rel.EdgeKind)
	switch rel.Dir {
	case DirForward:
		return e.g.Outgoing(h, kind)
	case DirBackward:
		return e.g.Incoming(h, kind)
	default: // DirEither
		out := e.g.Outgoing(h, kind)
		return append(out, e.g.Incoming(h, kind)...)
	}
}
