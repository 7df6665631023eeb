//go:build cgo

package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/google/uuid"
)

// extractEdges walks root and returns IMPORTS, CALLS, INHERITS, and
// IMPLEMENTS edges per the per-language productions table (§4.2). Targets
// are left as to_name; resolving to_symbol_id is the indexer's job.
func extractEdges(root *sitter.Node, source []byte, lang Language, path string) []Edge {
	var out []Edge

	out = append(out, importEdges(root, source, lang, path)...)
	out = append(out, callEdges(root, source, lang, path)...)
	out = append(out, heritageEdges(root, source, lang, path)...)

	return out
}

func importEdges(root *sitter.Node, source []byte, lang Language, path string) []Edge {
	var out []Edge
	for _, node := range findNodes(root, importNodeTypes(lang)) {
		name := importTarget(node, source, lang)
		if name == "" {
			continue
		}
		out = append(out, Edge{
			ToName:       name,
			Type:         EdgeImports,
			EvidenceLine: int(node.StartPoint().Row) + 1,
		})
	}
	return out
}

// importTarget extracts the module/path text an import statement names.
func importTarget(node *sitter.Node, source []byte, lang Language) string {
	switch lang {
	case LangC:
		// preproc_include: the path child carries <x> or "x".
		if pathNode := node.ChildByFieldName("path"); pathNode != nil {
			return strings.Trim(string(source[pathNode.StartByte():pathNode.EndByte()]), "<>\"")
		}
	default:
		if pathNode := node.ChildByFieldName("path"); pathNode != nil {
			return strings.Trim(string(source[pathNode.StartByte():pathNode.EndByte()]), "\"'`")
		}
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			return string(source[nameNode.StartByte():nameNode.EndByte()])
		}
		// Fall back to the whole statement's text (Go import_spec,
		// Python plain "import x", Kotlin import_header).
		text := strings.TrimSpace(string(source[node.StartByte():node.EndByte()]))
		text = strings.TrimPrefix(text, "import")
		text = strings.TrimPrefix(text, "use")
		text = strings.TrimSpace(text)
		text = strings.Trim(text, "\"'`;")
		return text
	}
	return ""
}

func callEdges(root *sitter.Node, source []byte, lang Language, path string) []Edge {
	var out []Edge
	for _, node := range findNodes(root, callNodeTypes(lang)) {
		callee := calleeName(node, source, lang)
		if callee == "" {
			continue
		}
		from := nearestEnclosingFunctionID(node, source, lang, path)
		out = append(out, Edge{
			FromSymbolID: from,
			ToName:       callee,
			Type:         EdgeCalls,
			EvidenceLine: int(node.StartPoint().Row) + 1,
		})
	}
	return out
}

// calleeName extracts the simple or dotted name a call expression invokes.
func calleeName(node *sitter.Node, source []byte, lang Language) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		fn = node.ChildByFieldName("name")
	}
	if fn == nil {
		return ""
	}

	switch fn.Type() {
	case "identifier", "field_identifier", "simple_identifier", "type_identifier":
		return string(source[fn.StartByte():fn.EndByte()])
	case "selector_expression", "member_expression", "field_expression", "navigation_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			return string(source[field.StartByte():field.EndByte()])
		}
		if field := fn.ChildByFieldName("property"); field != nil {
			return string(source[field.StartByte():field.EndByte()])
		}
	}

	// Best effort: last identifier-like token in the callee expression.
	if id := lastIdentifier(fn); id != nil {
		return string(source[id.StartByte():id.EndByte()])
	}
	return ""
}

func lastIdentifier(node *sitter.Node) *sitter.Node {
	var last *sitter.Node
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "identifier", "field_identifier", "simple_identifier", "property_identifier":
			last = n
		}
		for i := uint32(0); i < n.ChildCount(); i++ {
			walk(n.Child(int(i)))
		}
	}
	walk(node)
	return last
}

// nearestEnclosingFunctionID climbs ancestors to find the function/method
// this call site lives in, recomputing its symbol id the same way
// extractSymbols does.
func nearestEnclosingFunctionID(node *sitter.Node, source []byte, lang Language, path string) uuid.UUID {
	var zero uuid.UUID
	fnTypes := make(map[string]bool)
	for _, t := range functionNodeTypes(lang) {
		fnTypes[t] = true
	}

	parent := node.Parent()
	for parent != nil {
		if fnTypes[parent.Type()] {
			name := declName(parent, source, lang)
			if name == "" {
				return zero
			}
			container := enclosingScopeName(parent, source, lang)
			fqn := name
			if container != "" {
				fqn = container + "." + name
			}
			startLine := int(parent.StartPoint().Row) + 1
			return SymbolID(path, fqn, startLine)
		}
		parent = parent.Parent()
	}
	return zero
}

func heritageEdges(root *sitter.Node, source []byte, lang Language, path string) []Edge {
	var out []Edge

	switch lang {
	case LangPython:
		for _, node := range findNodes(root, []string{"class_definition"}) {
			super := node.ChildByFieldName("superclasses")
			if super == nil {
				continue
			}
			for _, id := range collectIdentifiers(super) {
				out = append(out, Edge{
					FromSymbolID: classSymbolID(node, source, lang, path),
					ToName:       string(source[id.StartByte():id.EndByte()]),
					Type:         EdgeInherits,
					EvidenceLine: int(node.StartPoint().Row) + 1,
				})
			}
		}

	case LangJava:
		for _, node := range findNodes(root, []string{"class_declaration"}) {
			if super := node.ChildByFieldName("superclass"); super != nil {
				if id := lastIdentifier(super); id != nil {
					out = append(out, Edge{
						FromSymbolID: classSymbolID(node, source, lang, path),
						ToName:       string(source[id.StartByte():id.EndByte()]),
						Type:         EdgeInherits,
						EvidenceLine: int(node.StartPoint().Row) + 1,
					})
				}
			}
			if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
				for _, id := range collectIdentifiers(ifaces) {
					out = append(out, Edge{
						FromSymbolID: classSymbolID(node, source, lang, path),
						ToName:       string(source[id.StartByte():id.EndByte()]),
						Type:         EdgeImplements,
						EvidenceLine: int(node.StartPoint().Row) + 1,
					})
				}
			}
		}

	case LangRust:
		for _, node := range findNodes(root, []string{"impl_item"}) {
			traitNode := node.ChildByFieldName("trait")
			typeNode := node.ChildByFieldName("type")
			if traitNode == nil || typeNode == nil {
				continue
			}
			out = append(out, Edge{
				ToName:       string(source[traitNode.StartByte():traitNode.EndByte()]) + " for " + string(source[typeNode.StartByte():typeNode.EndByte()]),
				Type:         EdgeImplements,
				EvidenceLine: int(node.StartPoint().Row) + 1,
			})
		}

	case LangKotlin:
		for _, node := range findNodes(root, []string{"class_declaration"}) {
			if delegation := node.ChildByFieldName("delegation_specifier"); delegation != nil {
				if id := lastIdentifier(delegation); id != nil {
					out = append(out, Edge{
						FromSymbolID: classSymbolID(node, source, lang, path),
						ToName:       string(source[id.StartByte():id.EndByte()]),
						Type:         EdgeInherits,
						EvidenceLine: int(node.StartPoint().Row) + 1,
					})
				}
			}
		}
	}

	return out
}

func classSymbolID(node *sitter.Node, source []byte, lang Language, path string) uuid.UUID {
	name := declName(node, source, lang)
	if name == "" {
		return uuid.UUID{}
	}
	startLine := int(node.StartPoint().Row) + 1
	return SymbolID(path, name, startLine)
}

func collectIdentifiers(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier", "type_identifier":
			out = append(out, child)
		default:
			out = append(out, collectIdentifiers(child)...)
		}
	}
	return out
}
