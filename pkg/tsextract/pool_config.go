package tsextract

import (
	"github.com/gnana997/codeindex/pkg/util"
)

// getDefaultPoolSize sizes each language's parser pool with the same
// CPU-aware formula Runner uses for its worker pool (util.GetOptimalPoolSize):
// 2x cores, clamped to [4, 32]. The two must stay in lockstep — a parser
// pool smaller than the worker count would leave workers blocked on
// parserPool.acquire() instead of doing CGO parse work.
//
// tsextract only ever has three pools live at once (TypeScript, TSX,
// JavaScript), each sized independently, so memory scales as
// 3 x poolSize x ~1MB/parser.
func getDefaultPoolSize() int {
	return util.GetOptimalPoolSize()
}
