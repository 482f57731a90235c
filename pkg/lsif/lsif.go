// Package lsif exports and imports a *graph.Graph as LSIF 0.5.0
// JSON-Lines, the portable dump format other tooling (editors, CI
// artifacts, a future reviewer) can consume without linking this module.
// Only the subset of LSIF this indexer's data model actually has an
// opinion about is emitted: metaData, project, document, range,
// resultSet, hoverResult, and the contains/next/textDocument-hover edges,
// plus one moniker-free edge per graph edge of kind Reference,
// Implementation or TypeDefinition (as textDocument/references,
// textDocument/implementation and textDocument/typeDefinition). Graph
// edges of any other kind, Definition and Contains included, are not
// exported. Import is tolerant of any label it doesn't
// recognize, per the LSIF contract (§6): unknown vertices and edges are
// skipped rather than rejected.
package lsif

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"

	"github.com/gnana997/codeindex/pkg/codeindexerr"
	"github.com/gnana997/codeindex/pkg/graph"
)

const (
	labelMetaData      = "metaData"
	labelProject       = "project"
	labelDocument      = "document"
	labelRange         = "range"
	labelResultSet     = "resultSet"
	labelHoverResult   = "hoverResult"
	labelContains      = "contains"
	labelNext          = "next"
	labelTextDocHover  = "textDocument/hover"
	labelDefinition    = "textDocument/definition"
	labelReferences    = "textDocument/references"
	labelTypeDef       = "textDocument/typeDefinition"
	labelImplementation = "textDocument/implementation"

	toolName    = "codeindex"
	toolVersion = "1.0.0"
)

// Vertex is one LSIF vertex line. Data carries every label-specific field
// flattened alongside id/type/label, the way the wire format does.
type Vertex struct {
	ID    string                 `json:"id"`
	Type  string                 `json:"type"`
	Label string                 `json:"label"`
	Data  map[string]interface{} `json:"-"`
}

// Edge is one LSIF edge line.
type Edge struct {
	ID    string                 `json:"id"`
	Type  string                 `json:"type"`
	Label string                 `json:"label"`
	OutV  string                 `json:"outV"`
	InV   string                 `json:"inV,omitempty"`
	InVs  []string               `json:"inVs,omitempty"`
	Data  map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Data alongside the fixed fields, matching LSIF's
// wire shape (no nested "data" object).
func (v Vertex) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{"id": v.ID, "type": v.Type, "label": v.Label}
	for k, val := range v.Data {
		m[k] = val
	}
	return json.Marshal(m)
}

func (e Edge) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{"id": e.ID, "type": e.Type, "label": e.Label, "outV": e.OutV}
	if e.InV != "" {
		m["inV"] = e.InV
	}
	if len(e.InVs) > 0 {
		m["inVs"] = e.InVs
	}
	for k, val := range e.Data {
		m[k] = val
	}
	return json.Marshal(m)
}

// rawLine is the shape used to sniff "type" and "label" off an arbitrary
// input line during Import, before deciding whether to decode the rest.
type rawLine struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

var edgeKindToLabel = map[graph.EdgeKind]string{
	graph.EdgeKindReference:      labelReferences,
	graph.EdgeKindImplementation: labelImplementation,
	graph.EdgeKindTypeDefinition: labelTypeDef,
}

var labelToEdgeKind = map[string]graph.EdgeKind{
	labelReferences:    graph.EdgeKindReference,
	labelImplementation: graph.EdgeKindImplementation,
	labelTypeDef:       graph.EdgeKindTypeDefinition,
}

// generator accumulates one export's worth of lines and hands out
// monotonically increasing ids, mirroring the original indexer's
// LsifGenerator.
type generator struct {
	counter int
	w       *bufio.Writer
	err     error
}

func (g *generator) nextID() string {
	g.counter++
	return strconv.Itoa(g.counter)
}

func (g *generator) emit(v interface{}) string {
	if g.err != nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		g.err = err
		return ""
	}
	if _, err := g.w.Write(b); err != nil {
		g.err = err
		return ""
	}
	if err := g.w.WriteByte('\n'); err != nil {
		g.err = err
	}
	return ""
}

func (g *generator) vertex(label string, data map[string]interface{}) string {
	id := g.nextID()
	g.emit(Vertex{ID: id, Type: "vertex", Label: label, Data: data})
	return id
}

func (g *generator) edge(label, outV, inV string) {
	id := g.nextID()
	g.emit(Edge{ID: id, Type: "edge", Label: label, OutV: outV, InV: inV})
}

// Export writes g as LSIF 0.5.0 JSON-Lines to w: one metaData vertex, one
// project vertex, one document vertex per distinct file (contains-linked
// to the project), one range+resultSet (+hoverResult, if Documentation is
// set) per symbol (contains-linked to its document), and one edge per
// graph edge whose kind this format has a label for.
func Export(g *graph.Graph, w io.Writer) error {
	bw := bufio.NewWriter(w)
	gen := &generator{w: bw}

	gen.vertex(labelMetaData, map[string]interface{}{
		"version":         "0.5.0",
		"projectRoot":     "file:///",
		"positionEncoding": "utf-16",
		"toolInfo":        map[string]interface{}{"name": toolName, "version": toolVersion},
	})
	projectID := gen.vertex(labelProject, map[string]interface{}{"kind": "multi"})

	snap := g.ToSnapshot()

	documentIDs := make(map[string]string)
	rangeIDs := make(map[string]string) // symbol id -> range vertex id

	for _, sym := range snap.Symbols {
		docID, ok := documentIDs[sym.FilePath]
		if !ok {
			docID = gen.vertex(labelDocument, map[string]interface{}{
				"uri":        "file://" + sym.FilePath,
				"languageId": "",
			})
			documentIDs[sym.FilePath] = docID
			gen.edge(labelContains, projectID, docID)
		}

		rangeID := gen.vertex(labelRange, map[string]interface{}{
			"start": map[string]interface{}{"line": sym.Range.Start.Line, "character": sym.Range.Start.Character},
			"end":   map[string]interface{}{"line": sym.Range.End.Line, "character": sym.Range.End.Character},
			"tag": map[string]interface{}{
				"type": "definition",
				"text": sym.Name,
				"kind": string(sym.Kind),
			},
		})
		rangeIDs[sym.ID] = rangeID
		gen.edge(labelContains, docID, rangeID)

		resultSetID := gen.vertex(labelResultSet, nil)
		gen.edge(labelNext, rangeID, resultSetID)

		if sym.Documentation != "" {
			hoverID := gen.vertex(labelHoverResult, map[string]interface{}{
				"result": map[string]interface{}{
					"contents": map[string]interface{}{"kind": "markdown", "value": sym.Documentation},
				},
			})
			gen.edge(labelTextDocHover, resultSetID, hoverID)
		}
	}

	for _, e := range snap.Edges {
		label, ok := edgeKindToLabel[e.Kind]
		if !ok {
			continue
		}
		fromRange, okFrom := rangeIDs[e.FromID]
		toRange, okTo := rangeIDs[e.ToID]
		if !okFrom || !okTo {
			continue
		}
		gen.edge(label, fromRange, toRange)
	}

	if gen.err != nil {
		return codeindexerr.New(codeindexerr.KindStore, "lsif export", gen.err)
	}
	return bw.Flush()
}

// Import reads an LSIF 0.5.0 JSON-Lines stream and reconstructs the
// subset of it this indexer's data model understands: document URIs
// become symbol FilePaths, range tags become Symbol name/kind, and
// reference/implementation/typeDefinition edges become graph Edges
// between the symbols owning their endpoint ranges. Any other label is
// skipped, per the "tolerant of unknown labels" contract (spec.md §6).
func Import(r io.Reader) (*graph.Graph, error) {
	g := graph.New()

	type rangeInfo struct {
		filePath string
		start    graph.Position
		end      graph.Position
		name     string
		kind     graph.SymbolKind
	}

	documents := make(map[string]string)   // vertex id -> uri-derived file path
	ranges := make(map[string]*rangeInfo)  // vertex id -> parsed range
	rangeToDoc := make(map[string]string)  // range vertex id -> document vertex id (via contains)
	rangeToSymbolID := make(map[string]string)
	pendingEdges := []struct {
		label string
		outV  string
		inV   string
	}{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var head rawLine
		if err := json.Unmarshal(line, &head); err != nil {
			return nil, codeindexerr.New(codeindexerr.KindStore, "lsif import: malformed line", err)
		}

		switch head.Type {
		case "vertex":
			switch head.Label {
			case labelDocument:
				var doc struct {
					URI string `json:"uri"`
				}
				if err := json.Unmarshal(line, &doc); err == nil {
					documents[head.ID] = stripFileURI(doc.URI)
				}
			case labelRange:
				var rg struct {
					Start graph.Position `json:"start"`
					End   graph.Position `json:"end"`
					Tag   struct {
						Text string `json:"text"`
						Kind string `json:"kind"`
					} `json:"tag"`
				}
				if err := json.Unmarshal(line, &rg); err == nil {
					ranges[head.ID] = &rangeInfo{
						start: rg.Start, end: rg.End,
						name: rg.Tag.Text, kind: graph.SymbolKind(rg.Tag.Kind),
					}
				}
			}

		case "edge":
			var e struct {
				OutV string `json:"outV"`
				InV  string `json:"inV"`
			}
			if err := json.Unmarshal(line, &e); err != nil {
				continue
			}
			switch head.Label {
			case labelContains:
				if _, isDoc := documents[e.OutV]; isDoc {
					rangeToDoc[e.InV] = e.OutV
				}
			case labelReferences, labelImplementation, labelTypeDef:
				pendingEdges = append(pendingEdges, struct {
					label string
					outV  string
					inV   string
				}{head.Label, e.OutV, e.InV})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, codeindexerr.New(codeindexerr.KindStore, "lsif import: read", err)
	}

	for rangeID, ri := range ranges {
		docID, ok := rangeToDoc[rangeID]
		if !ok {
			continue
		}
		filePath, ok := documents[docID]
		if !ok {
			continue
		}
		ri.filePath = filePath
		sym := graph.Symbol{
			ID:       graph.MakeID(filePath, ri.start.Line, ri.name),
			Name:     ri.name,
			Kind:     ri.kind,
			FilePath: filePath,
			Range:    graph.Range{Start: ri.start, End: ri.end},
		}
		g.AddSymbol(sym)
		rangeToSymbolID[rangeID] = sym.ID
	}

	for _, pe := range pendingEdges {
		kind, ok := labelToEdgeKind[pe.label]
		if !ok {
			continue
		}
		fromSymID, okFrom := rangeToSymbolID[pe.outV]
		toSymID, okTo := rangeToSymbolID[pe.inV]
		if !okFrom || !okTo {
			continue
		}
		fromH, okFrom2 := g.NodeByID(fromSymID)
		toH, okTo2 := g.NodeByID(toSymID)
		if !okFrom2 || !okTo2 {
			continue
		}
		_ = g.AddEdge(fromH, toH, kind)
	}

	return g, nil
}

func stripFileURI(uri string) string {
	const prefix = "file://"
	if len(uri) >= len(prefix) && uri[:len(prefix)] == prefix {
		return uri[len(prefix):]
	}
	return uri
}
