package tsextract

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/codeindex/pkg/tsextract/queries"
)

// QueryManager compiles and caches tree-sitter symbol queries per
// language, generalizing the teacher's query manager to the one query
// type this indexer actually needs (symbol declarations — definitions and
// references are resolved separately, by the graph builder walking
// identifier usages rather than a second query pass).
type QueryManager struct {
	pm     *ParserManager
	mu     sync.RWMutex
	cache  map[Language]*ts.Query
	logger *slog.Logger
}

// NewQueryManager returns a QueryManager bound to pm for language pointer
// lookups.
func NewQueryManager(pm *ParserManager, logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryManager{pm: pm, cache: make(map[Language]*ts.Query), logger: logger}
}

func symbolQueryString(lang Language) (string, error) {
	switch lang {
	case LanguageTypeScript:
		return queries.TSSymbolQueries, nil
	case LanguageJavaScript:
		return queries.JSSymbolQueries, nil
	default:
		return "", fmt.Errorf("unsupported language for symbol queries: %s", lang)
	}
}

// GetQuery returns the compiled symbol query for lang, compiling and
// caching it on first use.
func (qm *QueryManager) GetQuery(lang Language) (*ts.Query, error) {
	qm.mu.RLock()
	q, ok := qm.cache[lang]
	qm.mu.RUnlock()
	if ok {
		return q, nil
	}

	qm.mu.Lock()
	defer qm.mu.Unlock()
	if q, ok = qm.cache[lang]; ok {
		return q, nil
	}

	qstr, err := symbolQueryString(lang)
	if err != nil {
		return nil, err
	}
	langPtr, err := qm.pm.GetLanguagePointer(lang, false)
	if err != nil {
		return nil, err
	}
	tsLang := ts.NewLanguage(langPtr)
	query, qerr := ts.NewQuery(tsLang, qstr)
	if qerr != nil {
		return nil, fmt.Errorf("compile symbol query for %s: %s", lang, qerr.Message)
	}
	qm.cache[lang] = query
	return query, nil
}

// QueryCapture is one captured node from a query match, with its name
// split into category/field (e.g. "function.name" -> "function", "name").
type QueryCapture struct {
	Name     string
	Category string
	Field    string
	Node     *ts.Node
	Text     string
}

// QueryMatch groups the captures belonging to one query pattern match.
type QueryMatch struct {
	PatternIndex uint32
	Captures     []QueryCapture
}

// ExecuteQuery runs query against tree and returns structured matches.
func (qm *QueryManager) ExecuteQuery(tree *ts.Tree, query *ts.Query, source []byte) []QueryMatch {
	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	iter := cursor.Matches(query, tree.RootNode(), source)
	names := query.CaptureNames()

	var matches []QueryMatch
	for {
		m := iter.Next()
		if m == nil {
			break
		}
		var caps []QueryCapture
		for _, c := range m.Captures {
			var name string
			if int(c.Index) < len(names) {
				name = names[c.Index]
			}
			category, field := splitCaptureName(name)
			node := c.Node
			caps = append(caps, QueryCapture{
				Name:     name,
				Category: category,
				Field:    field,
				Node:     &node,
				Text:     string(node.Utf8Text(source)),
			})
		}
		matches = append(matches, QueryMatch{PatternIndex: uint32(m.PatternIndex), Captures: caps})
	}
	return matches
}

func splitCaptureName(name string) (category, field string) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return name, ""
}

// Close releases every compiled query.
func (qm *QueryManager) Close() {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	for lang, q := range qm.cache {
		q.Close()
		delete(qm.cache, lang)
	}
}
