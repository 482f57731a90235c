package graph

import (
	"fmt"

	"github.com/gnana997/codeindex/pkg/codeindexerr"
)

// InvariantError reports a violation of the graph's structural guarantees:
// a dangling handle, a double removal, or an edge referencing a node that
// no longer exists. These indicate a bug in the caller, not a data problem.
type InvariantError struct {
	Op   string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("graph: %s: %s", e.Op, e.Detail)
}

func newInvariantErr(op, detail string) error {
	return codeindexerr.New(codeindexerr.KindInvariant, detail, &InvariantError{Op: op, Detail: detail})
}
