// Package graph implements the code graph: a typed directed multigraph of
// Symbols connected by typed Edges, plus a primary index by stable symbol
// id. It is the in-memory core that the differential indexer mutates, the
// query engine traverses, and the fuzzy index and call/type hierarchy are
// both layered on top of.
package graph

import "fmt"

// SymbolKind is the closed enumeration of symbol kinds this indexer
// recognizes, mirroring the LSP SymbolKind set plus the few entries the
// original lsif-indexer adds (Reference, Unknown).
type SymbolKind string

const (
	SymbolKindFile          SymbolKind = "File"
	SymbolKindModule        SymbolKind = "Module"
	SymbolKindNamespace     SymbolKind = "Namespace"
	SymbolKindPackage       SymbolKind = "Package"
	SymbolKindClass         SymbolKind = "Class"
	SymbolKindMethod        SymbolKind = "Method"
	SymbolKindProperty      SymbolKind = "Property"
	SymbolKindField         SymbolKind = "Field"
	SymbolKindConstructor   SymbolKind = "Constructor"
	SymbolKindEnum          SymbolKind = "Enum"
	SymbolKindInterface     SymbolKind = "Interface"
	SymbolKindFunction      SymbolKind = "Function"
	SymbolKindVariable      SymbolKind = "Variable"
	SymbolKindConstant      SymbolKind = "Constant"
	SymbolKindString        SymbolKind = "String"
	SymbolKindNumber        SymbolKind = "Number"
	SymbolKindBoolean       SymbolKind = "Boolean"
	SymbolKindArray         SymbolKind = "Array"
	SymbolKindObject        SymbolKind = "Object"
	SymbolKindKey           SymbolKind = "Key"
	SymbolKindNull          SymbolKind = "Null"
	SymbolKindEnumMember    SymbolKind = "EnumMember"
	SymbolKindStruct        SymbolKind = "Struct"
	SymbolKindEvent         SymbolKind = "Event"
	SymbolKindOperator      SymbolKind = "Operator"
	SymbolKindTypeParameter SymbolKind = "TypeParameter"
	SymbolKindParameter     SymbolKind = "Parameter"
	SymbolKindReference     SymbolKind = "Reference"
	SymbolKindUnknown       SymbolKind = "Unknown"
)

// Position is a zero-based line/character location. Character offsets are
// UTF-16 code units, matching the LSP convention, since that is the
// convention the source extractors (LSP, tree-sitter) both produce.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [Start, End) span.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether p falls within r (half-open).
func (r Range) Contains(p Position) bool {
	if p.Line < r.Start.Line || p.Line > r.End.Line {
		return false
	}
	if p.Line == r.Start.Line && p.Character < r.Start.Character {
		return false
	}
	if p.Line == r.End.Line && p.Character >= r.End.Character {
		return false
	}
	return true
}

// Size returns a rough measure of a range's extent, used to pick the most
// specific of several overlapping ranges (smaller wins).
func (r Range) Size() int64 {
	lines := int64(r.End.Line) - int64(r.Start.Line)
	if lines < 0 {
		return 0
	}
	return lines*1_000_000 + int64(r.End.Character) - int64(r.Start.Character)
}

// Symbol is the atomic declared thing: a function, class, variable, and so
// on. Id is globally unique and deterministic: "<file_path>#<line>:<name>"
// where line is 1-based in the id string even though Range.Start.Line is
// 0-based internally (see DESIGN.md "Id encoding").
type Symbol struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	FilePath      string     `json:"file_path"`
	Range         Range      `json:"range"`
	Documentation string     `json:"documentation,omitempty"`
}

// MakeID builds the deterministic id for a symbol at a given 0-based start
// line, per the id-encoding convention above.
func MakeID(filePath string, zeroBasedStartLine uint32, name string) string {
	return fmt.Sprintf("%s#%d:%s", filePath, zeroBasedStartLine+1, name)
}

// EdgeKind is the closed enumeration of relationship types between two
// symbols. Multiple edges of different kinds (or even the same kind) may
// exist between the same ordered pair — the graph is a multigraph.
type EdgeKind string

const (
	EdgeKindDefinition     EdgeKind = "Definition"
	EdgeKindReference      EdgeKind = "Reference"
	EdgeKindTypeDefinition EdgeKind = "TypeDefinition"
	EdgeKindImplementation EdgeKind = "Implementation"
	EdgeKindOverride       EdgeKind = "Override"
	EdgeKindImport         EdgeKind = "Import"
	EdgeKindExport         EdgeKind = "Export"
	EdgeKindContains       EdgeKind = "Contains"
)

// NodeHandle is an opaque reference to a node in the graph, valid until the
// underlying symbol is removed. Handles are never recycled to a different
// symbol within one process's lifetime — a removed slot is tombstoned, not
// reused.
type NodeHandle int

// invalidHandle marks a tombstoned or not-yet-allocated slot.
const invalidHandle NodeHandle = -1
