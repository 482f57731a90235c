package fuzzy

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// numShards is the shard count for every sharded term index. 16 gives
// enough parallelism for typical indexing worker-pool sizes
// (util.GetOptimalPoolSize caps at 32) without the per-shard map becoming
// so small that hashing overhead dominates.
const numShards = 16

// shardedSet is a term -> set<symbol id> index, sharded by hashing the
// term so concurrent Add/Lookup calls for different terms never contend
// on the same lock (spec.md §5: "the fuzzy index uses sharded concurrent
// maps so that add/lookup can interleave across threads without a global
// lock").
type shardedSet struct {
	shards [numShards]*shard
}

type shard struct {
	mu sync.RWMutex
	m  map[string]map[string]struct{}
}

func newShardedSet() *shardedSet {
	s := &shardedSet{}
	for i := range s.shards {
		s.shards[i] = &shard{m: make(map[string]map[string]struct{})}
	}
	return s
}

func (s *shardedSet) shardFor(term string) *shard {
	h := xxhash.Sum64String(term) % uint64(numShards)
	return s.shards[h]
}

// Add records that id is associated with term.
func (s *shardedSet) Add(term, id string) {
	sh := s.shardFor(term)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set, ok := sh.m[term]
	if !ok {
		set = make(map[string]struct{})
		sh.m[term] = set
	}
	set[id] = struct{}{}
}

// Get returns every id associated with term, or nil if none.
func (s *shardedSet) Get(term string) []string {
	sh := s.shardFor(term)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	set, ok := sh.m[term]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Remove drops id from term's set, removing the term entirely if it
// becomes empty.
func (s *shardedSet) Remove(term, id string) {
	sh := s.shardFor(term)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set, ok := sh.m[term]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(sh.m, term)
	}
}

// Has reports whether at least one id is currently indexed under term.
func (s *shardedSet) Has(term string) bool {
	sh := s.shardFor(term)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	_, ok := sh.m[term]
	return ok
}
