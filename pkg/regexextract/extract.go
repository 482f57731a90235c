// Package regexextract is the extractor facade's last-resort backend: a
// line-oriented regular-expression scan for languages with no tree-sitter
// grammar wired in and no available LSP server. It trades precision
// (no real parse tree, no scope resolution) for always returning
// something, per the facade's "never fail outright" contract.
package regexextract

import (
	"bufio"
	"bytes"
	"regexp"

	"github.com/gnana997/codeindex/pkg/graph"
)

// pattern pairs a compiled regular expression with the symbol kind and
// name-group index it produces a match for.
type pattern struct {
	re       *regexp.Regexp
	kind     graph.SymbolKind
	nameGroup int
}

// languagePatterns holds, per language, the ordered set of patterns tried
// against each line. Earlier patterns take priority when a line matches
// more than one.
var languagePatterns = map[string][]pattern{
	"go": {
		{regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*\(`), graph.SymbolKindFunction, 1},
		{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+struct\b`), graph.SymbolKindStruct, 1},
		{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+interface\b`), graph.SymbolKindInterface, 1},
		{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+`), graph.SymbolKindClass, 1},
		{regexp.MustCompile(`^const\s+([A-Za-z_]\w*)\s*`), graph.SymbolKindConstant, 1},
		{regexp.MustCompile(`^var\s+([A-Za-z_]\w*)\s*`), graph.SymbolKindVariable, 1},
	},
	"rust": {
		{regexp.MustCompile(`^\s*(?:pub\s+)?fn\s+([A-Za-z_]\w*)`), graph.SymbolKindFunction, 1},
		{regexp.MustCompile(`^\s*(?:pub\s+)?struct\s+([A-Za-z_]\w*)`), graph.SymbolKindStruct, 1},
		{regexp.MustCompile(`^\s*(?:pub\s+)?enum\s+([A-Za-z_]\w*)`), graph.SymbolKindEnum, 1},
		{regexp.MustCompile(`^\s*(?:pub\s+)?trait\s+([A-Za-z_]\w*)`), graph.SymbolKindInterface, 1},
		{regexp.MustCompile(`^\s*(?:pub\s+)?const\s+([A-Za-z_]\w*)`), graph.SymbolKindConstant, 1},
	},
	"typescript": jsLikePatterns,
	"javascript": jsLikePatterns,
	"python": {
		{regexp.MustCompile(`^\s*def\s+([A-Za-z_]\w*)\s*\(`), graph.SymbolKindFunction, 1},
		{regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)\s*[:\(]`), graph.SymbolKindClass, 1},
	},
}

var jsLikePatterns = []pattern{
	{regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?function\s+([A-Za-z_$]\w*)\s*\(`), graph.SymbolKindFunction, 1},
	{regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$]\w*)`), graph.SymbolKindClass, 1},
	{regexp.MustCompile(`^\s*(?:export\s+)?interface\s+([A-Za-z_$]\w*)`), graph.SymbolKindInterface, 1},
	{regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$]\w*)\s*=`), graph.SymbolKindVariable, 1},
}

// Supported reports whether language has a registered pattern set.
func Supported(language string) bool {
	_, ok := languagePatterns[language]
	return ok
}

// Extract scans content line by line against language's patterns and
// returns the symbols it recognizes. It never returns an error: an
// unrecognized language or a file with no matches simply yields an empty
// slice, consistent with this being the facade's backstop backend.
func Extract(filePath, language string, content []byte) []graph.Symbol {
	patterns, ok := languagePatterns[language]
	if !ok {
		return nil
	}

	var out []graph.Symbol
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := uint32(0)
	for scanner.Scan() {
		line := scanner.Text()
		for _, p := range patterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := m[p.nameGroup]
			out = append(out, graph.Symbol{
				ID:       graph.MakeID(filePath, lineNo, name),
				Name:     name,
				Kind:     p.kind,
				FilePath: filePath,
				Range: graph.Range{
					Start: graph.Position{Line: lineNo, Character: 0},
					End:   graph.Position{Line: lineNo, Character: uint32(len(line))},
				},
			})
			break // first matching pattern wins per line
		}
		lineNo++
	}
	return out
}
