// Package fuzzy implements the secondary text-search index of spec.md
// §4.F: five term indices (exact name, prefix, bigram, trigram, CamelCase
// word) built lazily from a *graph.Graph, supporting exact, prefix,
// substring, CamelCase-abbreviation, n-gram, and edit-distance matching,
// ranked by a fixed scoring formula.
package fuzzy

import (
	"sort"
	"strings"
	"sync"

	"github.com/gnana997/codeindex/pkg/graph"
)

const (
	minPrefixLen = 1
	maxPrefixLen = 5
)

// Index is the fuzzy/text search index over a snapshot of symbols. It is
// safe for concurrent Add/Remove/Search calls.
type Index struct {
	nameIdx   *shardedSet // lowercase full name -> ids
	prefixIdx *shardedSet // lowercase prefix (len 1..5) -> ids
	bigramIdx *shardedSet // padded bigram -> ids
	trigramIdx *shardedSet // padded trigram -> ids
	wordIdx   *shardedSet // lowercase CamelCase token -> ids

	mu      sync.RWMutex
	symbols map[string]graph.Symbol // id -> payload
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		nameIdx:    newShardedSet(),
		prefixIdx:  newShardedSet(),
		bigramIdx:  newShardedSet(),
		trigramIdx: newShardedSet(),
		wordIdx:    newShardedSet(),
		symbols:    make(map[string]graph.Symbol),
	}
}

// BuildFromGraph constructs a fresh Index from every live symbol in g.
func BuildFromGraph(g *graph.Graph) *Index {
	idx := New()
	for _, s := range g.AllSymbols() {
		idx.Add(s)
	}
	return idx
}

// Add indexes sym under every term derived from its name. Re-adding a
// symbol whose name changed leaves stale terms behind unless the caller
// calls Remove(oldID) first. Nothing in this module updates an index in
// place: the CLI and the MCP server build a fresh one with BuildFromGraph.
func (idx *Index) Add(sym graph.Symbol) {
	idx.mu.Lock()
	idx.symbols[sym.ID] = sym
	idx.mu.Unlock()

	lower := strings.ToLower(sym.Name)
	idx.nameIdx.Add(lower, sym.ID)

	for n := minPrefixLen; n <= maxPrefixLen && n <= len(lower); n++ {
		idx.prefixIdx.Add(lower[:n], sym.ID)
	}

	padded := " " + lower + " "
	for _, bg := range ngrams(padded, 2) {
		idx.bigramIdx.Add(bg, sym.ID)
	}
	for _, tg := range ngrams(padded, 3) {
		idx.trigramIdx.Add(tg, sym.ID)
	}

	for _, tok := range SplitCamelCase(sym.Name) {
		idx.wordIdx.Add(strings.ToLower(tok), sym.ID)
	}
}

// Remove removes id's payload. Term-index entries are left in place and
// nothing prunes them; this is harmless because Search always
// resolves candidate ids back through idx.symbols and silently drops any
// id no longer present, so a stale term entry is never surfaced.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.symbols, id)
}

func (idx *Index) lookup(id string) (graph.Symbol, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	s, ok := idx.symbols[id]
	return s, ok
}

// ngrams returns every substring of length n in s (n=2 bigrams, n=3
// trigrams), including the whitespace padding the caller added.
func ngrams(s string, n int) []string {
	if len(s) < n {
		return nil
	}
	out := make([]string, 0, len(s)-n+1)
	for i := 0; i+n <= len(s); i++ {
		out = append(out, s[i:i+n])
	}
	return out
}

// Result is one scored match.
type Result struct {
	Symbol graph.Symbol
	Score  float64
}

// DefaultMaxResults is used when Search is called with maxResults <= 0.
const DefaultMaxResults = 20

// Search ranks every symbol against query per the tiered scoring formula
// of spec.md §4.F: a symbol accumulates at most one result, using its
// single highest-scoring category. Results are sorted by score descending,
// then by name length ascending, and capped at maxResults.
func (idx *Index) Search(query string, maxResults int) []Result {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if query == "" {
		return nil
	}

	lowerQ := strings.ToLower(query)
	best := make(map[string]float64)

	idx.scoreExact(lowerQ, best)
	idx.scorePrefix(lowerQ, best)
	idx.scoreCamelAbbrev(query, best)
	idx.scoreSubstring(lowerQ, best)
	idx.scoreNgram(lowerQ, best)
	idx.scoreLevenshtein(lowerQ, best)

	results := make([]Result, 0, len(best))
	for id, score := range best {
		sym, ok := idx.lookup(id)
		if !ok {
			continue
		}
		results = append(results, Result{Symbol: sym, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return len(results[i].Symbol.Name) < len(results[j].Symbol.Name)
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func considerBest(best map[string]float64, id string, score float64) {
	if cur, ok := best[id]; !ok || score > cur {
		best[id] = score
	}
}

func (idx *Index) scoreExact(lowerQ string, best map[string]float64) {
	for _, id := range idx.nameIdx.Get(lowerQ) {
		considerBest(best, id, 100)
	}
}

func (idx *Index) scorePrefix(lowerQ string, best map[string]float64) {
	if len(lowerQ) < minPrefixLen || len(lowerQ) > maxPrefixLen {
		return
	}
	for _, id := range idx.prefixIdx.Get(lowerQ) {
		sym, ok := idx.lookup(id)
		if !ok {
			continue
		}
		nameLen := len(sym.Name)
		if nameLen == len(lowerQ) {
			continue // exact match, already scored at 100
		}
		score := 90 - 0.5*float64(nameLen-len(lowerQ))
		considerBest(best, id, score)
	}
}

// scoreCamelAbbrev implements the CamelCase capital-sequence tier: every
// indexed symbol's uppercase-letter sequence is compared against
// uppercase(query); this tier necessarily scans every symbol since the
// abbreviation isn't a substring of the name itself.
func (idx *Index) scoreCamelAbbrev(query string, best map[string]float64) {
	uq := strings.ToUpper(query)
	if uq == "" {
		return
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for id, sym := range idx.symbols {
		caps := UppercaseLetters(sym.Name)
		if caps == "" {
			continue
		}
		if caps == uq || strings.HasPrefix(caps, uq) || strings.Contains(caps, uq) {
			considerBest(best, id, 85)
		}
	}
}

func (idx *Index) scoreSubstring(lowerQ string, best map[string]float64) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for id, sym := range idx.symbols {
		lowerName := strings.ToLower(sym.Name)
		pos := strings.Index(lowerName, lowerQ)
		if pos < 0 {
			continue
		}
		score := 70 - 0.5*float64(pos)
		considerBest(best, id, score)
	}
}

func (idx *Index) scoreNgram(lowerQ string, best map[string]float64) {
	var n int
	var set *shardedSet
	var threshold float64
	switch {
	case len(lowerQ) >= 3:
		n, set, threshold = 3, idx.trigramIdx, 0.25
	case len(lowerQ) == 2:
		n, set, threshold = 2, idx.bigramIdx, 0.30
	default:
		return
	}

	padded := " " + lowerQ + " "
	queryGrams := ngrams(padded, n)
	if len(queryGrams) == 0 {
		return
	}

	hits := make(map[string]int)
	for _, g := range queryGrams {
		for _, id := range set.Get(g) {
			hits[id]++
		}
	}

	total := float64(len(queryGrams))
	for id, count := range hits {
		ratio := float64(count) / total
		if ratio < threshold {
			continue
		}
		considerBest(best, id, 60*ratio)
	}
}

func (idx *Index) scoreLevenshtein(lowerQ string, best map[string]float64) {
	if len(lowerQ) < 3 {
		return
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for id, sym := range idx.symbols {
		lowerName := strings.ToLower(sym.Name)
		maxLen := len(lowerQ)
		if len(lowerName) > maxLen {
			maxLen = len(lowerName)
		}
		if maxLen == 0 {
			continue
		}
		threshold := int(0.30 * float64(maxLen))
		d := levenshtein(lowerQ, lowerName)
		if d > threshold {
			continue
		}
		score := 50 * (1 - float64(d)/float64(maxLen))
		considerBest(best, id, score)
	}
}

// levenshtein computes the classic edit distance between a and b using a
// two-row dynamic-programming table.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}
