// Package hierarchy answers call-graph and type-graph traversal questions
// over a *graph.Graph: who calls this function, what does it call, what
// does this type extend or get extended by, and what simple paths connect
// two symbols through calls. It is a thin read-only layer the way
// pkg/query is — no mutation, every traversal bounded by a depth limit and
// a visited set so cycles in the underlying graph can never cause it to
// loop or over-report.
package hierarchy

import (
	"github.com/gnana997/codeindex/pkg/codeindexerr"
	"github.com/gnana997/codeindex/pkg/graph"
)

// DefaultResultCap bounds how many symbols or paths a single call returns,
// applied at the outermost layer after traversal completes.
const DefaultResultCap = 50

// Direction selects which way Supertypes/Subtypes walks TypeDefinition and
// Implementation edges.
type Direction int

const (
	// DirectionUp follows outgoing edges: from a type to what it extends
	// or implements.
	DirectionUp Direction = iota
	// DirectionDown follows incoming edges: from a type to what extends
	// or implements it.
	DirectionDown
)

// Service answers hierarchy queries against one Graph.
type Service struct {
	g         *graph.Graph
	resultCap int
}

// NewService returns a Service over g with the default result cap.
func NewService(g *graph.Graph) *Service {
	return &Service{g: g, resultCap: DefaultResultCap}
}

// WithResultCap returns a copy of s with a different per-call result cap.
func (s *Service) WithResultCap(n int) *Service {
	cp := *s
	cp.resultCap = n
	return &cp
}

func isCallable(sym graph.Symbol) bool {
	return sym.Kind == graph.SymbolKindFunction || sym.Kind == graph.SymbolKindMethod
}

// IncomingCalls returns, up to maxDepth hops, every Function/Method symbol
// that reaches id via a chain of outgoing Reference edges (its callers,
// and their callers, and so on).
func (s *Service) IncomingCalls(id string, maxDepth int) ([]graph.Symbol, error) {
	start, ok := s.g.NodeByID(id)
	if !ok {
		return nil, codeindexerr.New(codeindexerr.KindInvariant, "unknown symbol id "+id, nil)
	}
	return s.cap(s.bfs(start, maxDepth, isCallable, func(h graph.NodeHandle) []graph.NodeHandle {
		return s.g.Incoming(h, graph.EdgeKindReference)
	})), nil
}

// OutgoingCalls returns, up to maxDepth hops, every Function/Method symbol
// id's chain of outgoing Reference edges reaches (what it calls, and what
// those call, and so on).
func (s *Service) OutgoingCalls(id string, maxDepth int) ([]graph.Symbol, error) {
	start, ok := s.g.NodeByID(id)
	if !ok {
		return nil, codeindexerr.New(codeindexerr.KindInvariant, "unknown symbol id "+id, nil)
	}
	return s.cap(s.bfs(start, maxDepth, isCallable, func(h graph.NodeHandle) []graph.NodeHandle {
		return s.g.Outgoing(h, graph.EdgeKindReference)
	})), nil
}

// Supertypes/Subtypes walk TypeDefinition and Implementation edges, which
// both point from the more specific symbol to the more general one (a
// class's Implementation edge to the interface it satisfies, a variable's
// TypeDefinition edge to its declared type).

// Supertypes returns, up to maxDepth hops, every type id extends or
// implements, transitively.
func (s *Service) Supertypes(id string, maxDepth int) ([]graph.Symbol, error) {
	return s.typeWalk(id, maxDepth, DirectionUp)
}

// Subtypes returns, up to maxDepth hops, every type that extends or
// implements id, transitively.
func (s *Service) Subtypes(id string, maxDepth int) ([]graph.Symbol, error) {
	return s.typeWalk(id, maxDepth, DirectionDown)
}

func (s *Service) typeWalk(id string, maxDepth int, dir Direction) ([]graph.Symbol, error) {
	start, ok := s.g.NodeByID(id)
	if !ok {
		return nil, codeindexerr.New(codeindexerr.KindInvariant, "unknown symbol id "+id, nil)
	}
	neighbors := func(h graph.NodeHandle) []graph.NodeHandle {
		var out []graph.NodeHandle
		if dir == DirectionUp {
			out = append(out, s.g.Outgoing(h, graph.EdgeKindTypeDefinition)...)
			out = append(out, s.g.Outgoing(h, graph.EdgeKindImplementation)...)
		} else {
			out = append(out, s.g.Incoming(h, graph.EdgeKindTypeDefinition)...)
			out = append(out, s.g.Incoming(h, graph.EdgeKindImplementation)...)
		}
		return out
	}
	return s.cap(s.bfs(start, maxDepth, func(graph.Symbol) bool { return true }, neighbors)), nil
}

// bfs walks from start along neighbors(h), at most maxDepth hops (maxDepth
// < 0 means unbounded, relying on the visited set for termination per
// spec.md §4.C), never revisiting a node, and keeping only symbols that
// pass keep. start itself is never included in the result.
func (s *Service) bfs(start graph.NodeHandle, maxDepth int, keep func(graph.Symbol) bool, neighbors func(graph.NodeHandle) []graph.NodeHandle) []graph.Symbol {
	visited := map[graph.NodeHandle]bool{start: true}
	frontier := []graph.NodeHandle{start}
	var out []graph.Symbol

	for depth := 0; (maxDepth < 0 || depth < maxDepth) && len(frontier) > 0; depth++ {
		var next []graph.NodeHandle
		for _, h := range frontier {
			for _, n := range neighbors(h) {
				if visited[n] {
					continue
				}
				visited[n] = true
				next = append(next, n)
				if sym, ok := s.g.GetSymbol(n); ok && keep(sym) {
					out = append(out, sym)
				}
			}
		}
		frontier = next
	}
	return out
}

func (s *Service) cap(syms []graph.Symbol) []graph.Symbol {
	if len(syms) > s.resultCap {
		return syms[:s.resultCap]
	}
	return syms
}

// CallPaths enumerates every simple path of Function/Method symbols from
// fromID to toID, no longer than maxDepth edges, via DFS with visited-set
// cycle pruning. The DFS stops as soon as resultCap paths have been
// found, so the cap bounds the search itself, not only the result.
func (s *Service) CallPaths(fromID, toID string, maxDepth int) ([][]graph.Symbol, error) {
	from, ok := s.g.NodeByID(fromID)
	if !ok {
		return nil, codeindexerr.New(codeindexerr.KindInvariant, "unknown symbol id "+fromID, nil)
	}
	to, ok := s.g.NodeByID(toID)
	if !ok {
		return nil, codeindexerr.New(codeindexerr.KindInvariant, "unknown symbol id "+toID, nil)
	}

	var paths [][]graph.Symbol
	visited := map[graph.NodeHandle]bool{}
	var path []graph.Symbol

	var walk func(h graph.NodeHandle, depth int)
	walk = func(h graph.NodeHandle, depth int) {
		if len(paths) >= s.resultCap {
			return
		}
		sym, ok := s.g.GetSymbol(h)
		if !ok {
			return
		}
		path = append(path, sym)
		defer func() { path = path[:len(path)-1] }()

		if h == to {
			cp := make([]graph.Symbol, len(path))
			copy(cp, path)
			paths = append(paths, cp)
			return
		}
		if maxDepth >= 0 && depth >= maxDepth {
			return
		}

		visited[h] = true
		defer delete(visited, h)

		for _, n := range s.g.Outgoing(h, graph.EdgeKindReference) {
			if visited[n] {
				continue
			}
			nsym, ok := s.g.GetSymbol(n)
			if !ok || !isCallable(nsym) {
				continue
			}
			walk(n, depth+1)
			if len(paths) >= s.resultCap {
				return
			}
		}
	}

	visited[from] = true
	walk(from, 0)
	return paths, nil
}
