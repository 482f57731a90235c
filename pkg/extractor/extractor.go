// Package extractor is the symbol extraction facade the differential
// indexer calls per changed file. It chains three backends in priority
// order — an LSP server when one is configured for the file's language,
// tree-sitter for the languages pkg/tsextract has a grammar for, and a
// regular-expression scanner as the backstop — and never returns an error
// for a file it cannot fully understand: a failed or absent backend is
// logged and the chain falls through to the next one, down to an empty
// symbol slice in the worst case.
package extractor

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gnana997/codeindex/pkg/graph"
	"github.com/gnana997/codeindex/pkg/lsp"
	"github.com/gnana997/codeindex/pkg/regexextract"
	"github.com/gnana997/codeindex/pkg/tsextract"
)

// Backend identifies which extraction path produced a file's symbols, so
// callers (and tests) can assert on fallback behavior.
type Backend string

const (
	BackendLSP       Backend = "lsp"
	BackendTreeSitter Backend = "tree-sitter"
	BackendRegex     Backend = "regex"
	BackendNone      Backend = "none"
)

// Extractor chains the three backends. lspPool may be nil, in which case
// the LSP stage is skipped entirely (the common case when no language
// server binaries are configured or installed).
type Extractor struct {
	lspPool *lsp.Pool
	ts      *tsextract.Extractor
	logger  *slog.Logger
}

// New returns an Extractor. lspPool may be nil to disable the LSP backend.
func New(lspPool *lsp.Pool, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{lspPool: lspPool, ts: tsextract.NewExtractor(), logger: logger}
}

// Result is one file's extracted symbols plus which backend produced them.
type Result struct {
	Symbols []graph.Symbol
	Backend Backend
}

// ExtractFile runs the backend chain for filePath/content. The LSP stage
// wins only with a non-empty result; the tree-sitter and regex stages
// return their result for any file they support, even when it is empty.
// A backend that errors is logged (an LSP server that cannot be acquired
// at Debug, other failures at Warn) and the chain continues; no error is
// propagated to the caller, keeping the differential indexer's per-file
// loop non-failing.
func (e *Extractor) ExtractFile(ctx context.Context, filePath string, content []byte) Result {
	lang := languageName(filePath)

	if e.lspPool != nil {
		if syms, ok := e.tryLSP(ctx, filePath, content, lang); ok {
			return Result{Symbols: syms, Backend: BackendLSP}
		}
	}

	if tsextract.Supported(filePath) {
		syms, err := e.ts.ExtractFile(filePath, content)
		if err != nil {
			e.logger.Warn("tree-sitter extraction failed, falling back", "file", filePath, "error", err)
		} else {
			return Result{Symbols: syms, Backend: BackendTreeSitter}
		}
	}

	if regexextract.Supported(lang) {
		syms := regexextract.Extract(filePath, lang, content)
		return Result{Symbols: syms, Backend: BackendRegex}
	}

	e.logger.Debug("no backend claims this file, yielding no symbols",
		"file", filePath, "tree_sitter_extensions", tsextract.SupportedExtensions())
	return Result{Backend: BackendNone}
}

func (e *Extractor) tryLSP(ctx context.Context, filePath string, content []byte, lang string) ([]graph.Symbol, bool) {
	h, err := e.lspPool.Acquire(ctx, lang)
	if err != nil {
		e.logger.Debug("no lsp server for language, falling back", "language", lang, "file", filePath)
		return nil, false
	}
	defer h.Release()

	uri := "file://" + filePath
	if err := h.Client.DidOpen(uri, lang, string(content)); err != nil {
		e.logger.Warn("lsp didOpen failed, falling back", "file", filePath, "error", err)
		h.Drop()
		return nil, false
	}

	docSyms, err := h.Client.DocumentSymbols(ctx, uri)
	if err != nil {
		e.logger.Warn("lsp documentSymbol failed, falling back", "file", filePath, "error", err)
		h.Drop()
		return nil, false
	}
	if len(docSyms) == 0 {
		return nil, false
	}

	return flattenLSPSymbols(docSyms, filePath, ""), true
}

// flattenLSPSymbols walks the hierarchical DocumentSymbol tree LSP
// returns, producing one graph.Symbol per node with a dotted name
// carrying the parent scope, mirroring how pkg/tsextract folds class
// scope into a method's name.
func flattenLSPSymbols(docSyms []lsp.DocumentSymbol, filePath, scope string) []graph.Symbol {
	var out []graph.Symbol
	for _, ds := range docSyms {
		name := ds.Name
		if scope != "" {
			name = scope + "." + name
		}
		kind := graph.SymbolKind(lsp.KindTable[ds.Kind])
		if kind == "" {
			kind = graph.SymbolKindUnknown
		}
		r := graph.Range{
			Start: graph.Position{Line: ds.Range.Start.Line, Character: ds.Range.Start.Character},
			End:   graph.Position{Line: ds.Range.End.Line, Character: ds.Range.End.Character},
		}
		out = append(out, graph.Symbol{
			ID:            graph.MakeID(filePath, r.Start.Line, name),
			Name:          name,
			Kind:          kind,
			FilePath:      filePath,
			Range:         r,
			Documentation: ds.Detail,
		})
		out = append(out, flattenLSPSymbols(ds.Children, filePath, name)...)
	}
	return out
}

// languageName derives the extractor-facade's internal language name from
// a file's extension, used to key both the LSP pool's server configs and
// the regex backend's pattern table.
func languageName(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return "typescript"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".go":
		return "go"
	case ".rs":
		return "rust"
	case ".py":
		return "python"
	default:
		return ""
	}
}

// Close releases the tree-sitter backend's parser pools. The LSP pool, if
// any, is owned by the caller and closed separately.
func (e *Extractor) Close() error {
	return e.ts.Close()
}
