// Package lsp implements a minimal language-server-protocol client: enough
// to spawn a server over stdio, complete the initialize handshake, and
// request textDocument/documentSymbol for a file. It is modeled closely on
// the original lsif-indexer's rust-analyzer client, generalized to any
// server binary and given a pool so multiple files can be extracted
// without re-spawning a process per file.
package lsp

import "encoding/json"

// request is an outgoing JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// notification is an outgoing JSON-RPC 2.0 notification (no id, no reply
// expected).
type notification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// response is an incoming JSON-RPC 2.0 message, which may be a reply to
// one of our requests (ID set) or a server-initiated notification/request
// (ID absent) that this client ignores.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// DocumentSymbol mirrors the LSP DocumentSymbol shape, hierarchical
// variant (hierarchicalDocumentSymbolSupport: true is what this client
// advertises at initialize time, matching the original client).
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           int              `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// Position and Range mirror the LSP wire types (zero-based, UTF-16 code
// units).
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// KindTable maps the LSP numeric SymbolKind to the names this indexer's
// graph package uses, per the LSP spec's fixed enumeration (§3.17.2).
var KindTable = map[int]string{
	1:  "File",
	2:  "Module",
	3:  "Namespace",
	4:  "Package",
	5:  "Class",
	6:  "Method",
	7:  "Property",
	8:  "Field",
	9:  "Constructor",
	10: "Enum",
	11: "Interface",
	12: "Function",
	13: "Variable",
	14: "Constant",
	15: "String",
	16: "Number",
	17: "Boolean",
	18: "Array",
	19: "Object",
	20: "Key",
	21: "Null",
	22: "EnumMember",
	23: "Struct",
	24: "Event",
	25: "Operator",
	26: "TypeParameter",
}
