// Package query implements the Cypher-subset pattern language described in
// spec.md §4.Q: a chain of node and relationship patterns, parsed into a
// Pattern and executed against a *graph.Graph by BFS extension.
package query

import "math"

// Direction names which way a relationship pattern may be traversed.
type Direction int

const (
	// DirForward matches "-[...]->", traversing outgoing edges.
	DirForward Direction = iota
	// DirBackward matches "<-[...]-", traversing incoming edges.
	DirBackward
	// DirEither matches a bare "-[...]-" with no arrowhead, traversing
	// edges in either direction. The grammar in spec.md §4.Q only shows
	// forward/backward arrows explicitly, but a dash with no arrow is a
	// legal production of "arrow" reduced to its first alternative with
	// the optional '>' absent; this is what it means.
	DirEither
)

// NodePattern is one parenthesized node in a pattern: "(var:Label)". Both
// Var and Label are optional; an empty Label matches any symbol kind.
type NodePattern struct {
	Var   string
	Label string // graph.SymbolKind as a string, or "" for any kind
}

// DepthRange bounds a relationship's traversal depth. Min defaults to 1 for
// a path of unspecified lower bound; Max of math.MaxInt64 means unbounded.
type DepthRange struct {
	Min int
	Max int
}

// unboundedMax is the sentinel used for "no upper bound", kept as a named
// constant so depth-range construction reads clearly at call sites.
const unboundedMax = math.MaxInt64

// RelPattern is one relationship hop: an optional edge-kind filter, an
// optional depth range, and a direction.
type RelPattern struct {
	EdgeKind string // graph.EdgeKind as a string, or "" for any kind
	Depth    DepthRange
	Dir      Direction
}

// Pattern is node (rel node)* : one or more nodes connected by
// relationships, evaluated left to right.
type Pattern struct {
	Nodes []NodePattern
	Rels  []RelPattern // len(Rels) == len(Nodes)-1
}
