package tsextract

import (
	"fmt"

	"github.com/gnana997/codeindex/pkg/graph"
)

// Extractor bundles a ParserManager and QueryManager, giving the
// extractor facade a single Close-able handle for the tree-sitter backend
// instead of two.
type Extractor struct {
	parsers *ParserManager
	queries *QueryManager
}

// NewExtractor returns an Extractor ready to parse TypeScript, TSX, and
// JavaScript files.
func NewExtractor() *Extractor {
	pm := NewParserManager(nil)
	return &Extractor{parsers: pm, queries: NewQueryManager(pm, nil)}
}

// Supported reports whether filePath's extension is one this backend
// handles.
func Supported(filePath string) bool {
	return DetectLanguage(filePath) != LanguageUnknown
}

// ExtractFile parses content as filePath's detected language and returns
// every declared symbol found.
func (e *Extractor) ExtractFile(filePath string, content []byte) ([]graph.Symbol, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("tsextract: unsupported file extension %q", filePath)
	}

	tree, err := e.parsers.Parse(content, lang, IsTSXFile(filePath))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	query, err := e.queries.GetQuery(lang)
	if err != nil {
		return nil, err
	}

	matches := e.queries.ExecuteQuery(tree, query, content)
	return buildSymbols(matches, content, filePath), nil
}

// Close releases parser pools and compiled queries.
func (e *Extractor) Close() error {
	e.queries.Close()
	return e.parsers.Close()
}
