package tsextract

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/codeindex/pkg/graph"
)

// declarationNodeTypes names the grammar nodes whose extent should be used
// as a symbol's range instead of the bare identifier the query captured —
// the identifier alone would miss the body, which code-fetching and
// FindDefinitionAt both depend on being complete.
var declarationNodeTypes = map[string]bool{
	"function_declaration":    true,
	"method_definition":       true,
	"class_declaration":       true,
	"interface_declaration":   true,
	"type_alias_declaration":  true,
	"lexical_declaration":     true,
	"variable_declaration":    true,
	"function_signature":      true,
	"method_signature":        true,
	"public_field_definition": true,
	"enum_declaration":        true,
}

// symbolKindForCategory maps a query capture's category prefix (the part
// before the dot, e.g. "function" in "function.name") to a SymbolKind.
func symbolKindForCategory(category string) graph.SymbolKind {
	switch category {
	case "function", "func":
		return graph.SymbolKindFunction
	case "class":
		return graph.SymbolKindClass
	case "interface":
		return graph.SymbolKindInterface
	case "type":
		return graph.SymbolKindClass
	case "variable", "var", "let", "const":
		return graph.SymbolKindVariable
	case "constant":
		return graph.SymbolKindConstant
	case "enum":
		return graph.SymbolKindEnum
	case "method":
		return graph.SymbolKindMethod
	case "property", "field":
		return graph.SymbolKindProperty
	default:
		return graph.SymbolKindVariable
	}
}

// buildSymbols converts the query matches produced against tree into
// graph.Symbol values, resolving each match's declaration node, range,
// and a dotted name that folds in the enclosing class/interface/namespace
// scope, the same way the original symbol builder walked the scope chain.
func buildSymbols(matches []QueryMatch, source []byte, filePath string) []graph.Symbol {
	out := make([]graph.Symbol, 0, len(matches))
	for _, m := range matches {
		sym := buildSymbol(m, source, filePath)
		if sym != nil {
			out = append(out, *sym)
		}
	}
	return out
}

func buildSymbol(match QueryMatch, source []byte, filePath string) *graph.Symbol {
	nameCap := findNameCapture(match.Captures)
	if nameCap == nil {
		return nil
	}

	name := nameCap.Text
	kind := symbolKindForCategory(nameCap.Category)
	nameNode := nameCap.Node

	declNode := findDeclarationNode(nameNode)
	rangeNode := declNode
	if rangeNode == nil {
		rangeNode = nameNode
	}

	r := rangeFromNode(rangeNode)
	fqn := buildScopedName(nameNode, name, source)
	exported := isExported(nameNode)

	doc := ""
	if exported {
		doc = fmt.Sprintf("exported %s", strings.ToLower(string(kind)))
	}

	return &graph.Symbol{
		ID:            graph.MakeID(filePath, r.Start.Line, fqn),
		Name:          fqn,
		Kind:          kind,
		FilePath:      filePath,
		Range:         r,
		Documentation: doc,
	}
}

func findNameCapture(captures []QueryCapture) *QueryCapture {
	for i := range captures {
		if captures[i].Field == "name" {
			return &captures[i]
		}
	}
	return nil
}

func findDeclarationNode(nameNode *ts.Node) *ts.Node {
	current := nameNode.Parent()
	for depth := 0; current != nil && depth < 10; depth++ {
		if declarationNodeTypes[current.GrammarName()] {
			return current
		}
		current = current.Parent()
	}
	return nil
}

func rangeFromNode(node *ts.Node) graph.Range {
	start := node.StartPosition()
	end := node.EndPosition()
	return graph.Range{
		Start: graph.Position{Line: uint32(start.Row), Character: uint32(start.Column)},
		End:   graph.Position{Line: uint32(end.Row), Character: uint32(end.Column)},
	}
}

// buildScopedName walks up the parent chain from node collecting enclosing
// class/interface/namespace names, producing a dot-joined name such as
// "Widget.render" for a method nested in a class.
func buildScopedName(node *ts.Node, name string, source []byte) string {
	var chain []string
	current := node.Parent()
	// A declaration's own name node sits directly under it; that
	// declaration is the symbol itself, not an enclosing scope.
	if current != nil {
		if n := current.ChildByFieldName("name"); n != nil && n.StartByte() == node.StartByte() && n.EndByte() == node.EndByte() {
			current = current.Parent()
		}
	}
	for current != nil {
		if scope := scopeNameOf(current, source); scope != "" {
			chain = append([]string{scope}, chain...)
		}
		current = current.Parent()
	}
	chain = append(chain, name)
	return strings.Join(chain, ".")
}

func scopeNameOf(node *ts.Node, source []byte) string {
	switch node.GrammarName() {
	case "class_declaration", "class", "namespace_declaration", "module_declaration", "interface_declaration":
		if n := node.ChildByFieldName("name"); n != nil {
			return string(n.Utf8Text(source))
		}
	}
	return ""
}

// isExported reports whether node sits directly under an export
// declaration, per the TypeScript/JavaScript convention (no 'export'
// keyword on the identifier itself — it lives on the parent statement).
func isExported(node *ts.Node) bool {
	parent := node.Parent()
	if parent != nil && isExportNode(parent) {
		return true
	}
	if parent != nil {
		if gp := parent.Parent(); gp != nil && isExportNode(gp) {
			return true
		}
	}
	return false
}

func isExportNode(n *ts.Node) bool {
	t := n.GrammarName()
	return t == "export_statement" || t == "export_declaration"
}
