package tsextract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnana997/codeindex/pkg/graph"
)

func TestExtractFileTypeScriptFunctionAndClass(t *testing.T) {
	e := NewExtractor()
	defer e.Close()

	src := `
export function add(a: number, b: number): number {
  return a + b;
}

class Widget {
  render() {
    return null;
  }
}
`
	syms, err := e.ExtractFile("widget.ts", []byte(src))
	require.NoError(t, err)

	names := map[string]graph.SymbolKind{}
	for _, s := range syms {
		names[s.Name] = s.Kind
	}

	require.Equal(t, graph.SymbolKindFunction, names["add"])
	require.Equal(t, graph.SymbolKindClass, names["Widget"])
	require.Equal(t, graph.SymbolKindMethod, names["Widget.render"])
}

func TestExtractFileUnsupportedExtension(t *testing.T) {
	e := NewExtractor()
	defer e.Close()

	_, err := e.ExtractFile("main.rs", []byte("fn main() {}"))
	require.Error(t, err)
}

func TestSupported(t *testing.T) {
	require.True(t, Supported("a.ts"))
	require.True(t, Supported("a.tsx"))
	require.True(t, Supported("a.js"))
	require.False(t, Supported("a.rs"))
}

func TestDetectLanguage(t *testing.T) {
	require.Equal(t, LanguageTypeScript, DetectLanguage("a.ts"))
	require.Equal(t, LanguageJavaScript, DetectLanguage("a.js"))
	require.Equal(t, LanguageUnknown, DetectLanguage("a.py"))
}
