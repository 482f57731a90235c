package tsextract

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// poolKey uniquely identifies a parser pool: one pool per language, plus a
// separate pool for TypeScript-with-JSX since the JSX grammar variant needs
// its own tree-sitter language pointer.
type poolKey struct {
	lang  Language
	isTSX bool
}

// ParserManager owns one lazily-created parserPool per (language, isTSX)
// pair this indexer extracts from — TypeScript, TSX, and JavaScript — and
// is shared by every worker in the indexer's worker pool so concurrent
// extraction jobs for the same language reuse parsers instead of each
// paying tree-sitter's grammar-load cost. Must be closed via Close() to
// free the underlying parsers; Tree values it returns are owned by the
// caller and must be closed with tree.Close().
type ParserManager struct {
	// pools stores parser pools per language (lazily initialized)
	pools map[poolKey]*parserPool

	// mutex provides thread-safe access to pools map and stats
	mutex sync.RWMutex

	// logger for structured logging
	logger *slog.Logger

	// stats tracks usage for the Close() log line
	stats struct {
		poolsCreated int
		parsesCalled int
	}
}

// NewParserManager creates a new ParserManager instance.
//
// The returned manager must be closed via Close() to free resources.
func NewParserManager(logger *slog.Logger) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &ParserManager{
		pools:  make(map[poolKey]*parserPool),
		logger: logger,
	}
}

// Parse parses source using lang's grammar and returns the resulting Tree,
// which the caller must close via tree.Close(). isTSX is only meaningful
// for LanguageTypeScript; it selects the JSX-enabled grammar variant.
//
// Safe for concurrent use: each call acquires and releases a parser from
// lang's pool rather than holding one for the ParserManager's lifetime.
func (pm *ParserManager) Parse(source []byte, lang Language, isTSX bool) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	// Increment parse counter (protected by mutex)
	pm.mutex.Lock()
	pm.stats.parsesCalled++
	pm.mutex.Unlock()

	// Get or create pool for this language
	pool, err := pm.getOrCreatePool(lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", lang, err)
	}

	// Acquire a parser from the pool
	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}

	// Parse the source code
	tree := parser.Parse(source, nil)

	// Release parser back to pool immediately
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("parser.Parse returned nil tree")
	}

	// Log parse errors (but still return tree - partial trees are useful)
	root := tree.RootNode()
	if root.HasError() {
		pm.logger.Warn("parse tree contains errors",
			"language", lang.String(),
			"errors", true)
	}

	return tree, nil
}

// Close releases every parser pool. The ParserManager cannot be reused
// afterward.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.logger.Info("closing ParserManager",
		"pools_created", pm.stats.poolsCreated,
		"parses_called", pm.stats.parsesCalled)

	// Close all parser pools
	for key, pool := range pm.pools {
		if pool != nil {
			pool.close()
			pm.logger.Debug("closed parser pool",
				"language", key.lang.String(),
				"isTSX", key.isTSX)
		}
	}

	// Clear map
	pm.pools = make(map[poolKey]*parserPool)

	return nil
}

// getOrCreatePool returns an existing parser pool or creates a new one.
// Thread-safe using double-checked locking pattern.
func (pm *ParserManager) getOrCreatePool(lang Language, isTSX bool) (*parserPool, error) {
	key := poolKey{lang: lang, isTSX: isTSX}

	// Fast path: pool already exists (read lock)
	pm.mutex.RLock()
	pool, exists := pm.pools[key]
	pm.mutex.RUnlock()

	if exists {
		return pool, nil
	}

	// Slow path: create pool (write lock)
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if pool, exists = pm.pools[key]; exists {
		return pool, nil
	}

	// Get language pointer
	langPtr, err := pm.GetLanguagePointer(lang, isTSX)
	if err != nil {
		return nil, err
	}

	// Create new parser pool with CPU-aware sizing
	poolSize := getDefaultPoolSize()
	pool = newParserPool(lang, langPtr, isTSX, poolSize, pm.logger)
	pm.pools[key] = pool
	pm.stats.poolsCreated++

	pm.logger.Debug("created new parser pool",
		"language", lang.String(),
		"isTSX", isTSX,
		"maxSize", poolSize)

	return pool, nil
}

// GetLanguagePointer returns the unsafe.Pointer to the tree-sitter language grammar.
//
// This is a public method used by QueryManager to compile queries.
// The isTSX parameter is only relevant for TypeScript (enables JSX support).
func (pm *ParserManager) GetLanguagePointer(lang Language, isTSX bool) (unsafe.Pointer, error) {
	switch lang {
	case LanguageTypeScript:
		if isTSX {
			return ts_typescript.LanguageTSX(), nil
		}
		return ts_typescript.LanguageTypescript(), nil

	case LanguageJavaScript:
		return ts_javascript.Language(), nil

	default:
		return nil, fmt.Errorf("unsupported language: %s", lang.String())
	}
}

