//go:build cgo

package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ckb/internal/complexity"
)

// extractSymbols walks root and returns every function/method and
// type/class/struct/interface declaration, with fqn built by walking
// enclosing scopes (§4.2).
func extractSymbols(root *sitter.Node, source []byte, lang Language, path string) []Symbol {
	var out []Symbol

	out = append(out, extractKindSymbols(root, source, lang, path, functionNodeTypes(lang), classifyFunctionKind)...)
	out = append(out, extractKindSymbols(root, source, lang, path, typeNodeTypes(lang), classifyTypeKind)...)

	return out
}

type kindClassifier func(node *sitter.Node, lang Language) SymbolKind

func extractKindSymbols(root *sitter.Node, source []byte, lang Language, path string, nodeTypes []string, classify kindClassifier) []Symbol {
	var out []Symbol
	for _, node := range findNodes(root, nodeTypes) {
		name := declName(node, source, lang)
		if name == "" {
			continue
		}

		kind := classify(node, lang)
		container := enclosingScopeName(node, source, lang)
		fqn := name
		if container != "" {
			fqn = container + "." + name
			if kind == KindFunction {
				kind = KindMethod
			}
		}

		startLine := int(node.StartPoint().Row) + 1
		endLine := int(node.EndPoint().Row) + 1

		sym := Symbol{
			ID:            SymbolID(path, fqn, startLine),
			FilePath:      path,
			FQN:           fqn,
			SimpleName:    name,
			Kind:          kind,
			StartLine:     startLine,
			EndLine:       endLine,
			Signature:     firstLine(node, source),
			Language:      lang,
			ContainerName: container,
		}
		if kind == KindFunction || kind == KindMethod {
			sym.Complexity = complexityFor(node, source, lang)
		}

		out = append(out, sym)
	}
	return out
}

// declName extracts the identifier naming a declaration node.
func declName(node *sitter.Node, source []byte, lang Language) string {
	var nameNode *sitter.Node

	switch lang {
	case LangGo:
		nameNode = node.ChildByFieldName("name")
	case LangKotlin:
		for i := uint32(0); i < node.ChildCount(); i++ {
			child := node.Child(int(i))
			if child != nil && child.Type() == "simple_identifier" {
				nameNode = child
				break
			}
		}
	case LangC:
		switch node.Type() {
		case "function_definition":
			declarator := node.ChildByFieldName("declarator")
			nameNode = findIdentifier(declarator)
		case "struct_specifier", "type_definition":
			nameNode = node.ChildByFieldName("name")
			if nameNode == nil {
				nameNode = findIdentifier(node)
			}
		}
	default:
		nameNode = node.ChildByFieldName("name")
	}

	if nameNode == nil {
		return ""
	}
	return string(source[nameNode.StartByte():nameNode.EndByte()])
}

// findIdentifier returns the first identifier-ish descendant of node.
func findIdentifier(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "identifier" || node.Type() == "type_identifier" {
		return node
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		if found := findIdentifier(node.Child(int(i))); found != nil {
			return found
		}
	}
	return nil
}

// classifyFunctionKind labels a function node as a plain function or a
// method (has a receiver/enclosing class).
func classifyFunctionKind(node *sitter.Node, lang Language) SymbolKind {
	switch lang {
	case LangGo:
		if node.Type() == "method_declaration" {
			return KindMethod
		}
	case LangJavaScript, LangTypeScript, LangTSX:
		if node.Type() == "method_definition" {
			return KindMethod
		}
	case LangJava:
		if node.Type() == "constructor_declaration" {
			return KindMethod
		}
	}
	return KindFunction
}

// classifyTypeKind labels a type declaration node by its concrete kind.
func classifyTypeKind(node *sitter.Node, lang Language) SymbolKind {
	switch lang {
	case LangJavaScript, LangTypeScript, LangTSX:
		switch node.Type() {
		case "class_declaration":
			return KindClass
		case "interface_declaration":
			return KindInterface
		default:
			return KindType
		}
	case LangPython:
		return KindClass
	case LangRust:
		switch node.Type() {
		case "struct_item":
			return KindStruct
		case "trait_item":
			return KindInterface
		default:
			return KindType
		}
	case LangJava, LangKotlin:
		switch node.Type() {
		case "class_declaration":
			return KindClass
		case "interface_declaration":
			return KindInterface
		default:
			return KindType
		}
	case LangC:
		if node.Type() == "struct_specifier" {
			return KindStruct
		}
		return KindType
	default:
		return KindType
	}
}

// enclosingScopeName walks ancestors to find the nearest enclosing
// class/struct/object name, used to build a dotted fqn.
func enclosingScopeName(node *sitter.Node, source []byte, lang Language) string {
	classTypes := map[string]bool{
		"class_definition":  true, // Python
		"class_declaration": true, // JS/TS/Java/Kotlin
		"struct_item":       true, // Rust (impl blocks handled below)
		"impl_item":         true, // Rust
	}

	parent := node.Parent()
	for parent != nil {
		if classTypes[parent.Type()] {
			if nameNode := parent.ChildByFieldName("name"); nameNode != nil {
				return string(source[nameNode.StartByte():nameNode.EndByte()])
			}
			if parent.Type() == "impl_item" {
				if typeNode := parent.ChildByFieldName("type"); typeNode != nil {
					return string(source[typeNode.StartByte():typeNode.EndByte()])
				}
			}
		}
		if lang == LangGo && parent.Type() == "method_declaration" {
			// handled separately via receiver
		}
		parent = parent.Parent()
	}

	if lang == LangGo && node.Type() == "method_declaration" {
		return goReceiverType(node, source)
	}

	return ""
}

// goReceiverType extracts the receiver type name of a Go method.
func goReceiverType(node *sitter.Node, source []byte) string {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}
	if id := findIdentifierByType(receiver, "type_identifier"); id != nil {
		return string(source[id.StartByte():id.EndByte()])
	}
	return ""
}

func findIdentifierByType(node *sitter.Node, t string) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == t {
		return node
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		if found := findIdentifierByType(node.Child(int(i)), t); found != nil {
			return found
		}
	}
	return nil
}

// firstLine returns a signature-ish first line of the node's source span.
func firstLine(node *sitter.Node, source []byte) string {
	content := source[node.StartByte():node.EndByte()]
	if len(content) > 200 {
		content = content[:200]
	}
	if idx := strings.IndexByte(string(content), '\n'); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(string(content))
}

// complexityLangFor maps a parser Language onto the internal/complexity
// package's Language, when that package carries decision/nesting tables for
// it. C has no table there, so its complexity is computed locally.
func complexityLangFor(lang Language) (complexity.Language, bool) {
	switch lang {
	case LangGo:
		return complexity.LangGo, true
	case LangJavaScript:
		return complexity.LangJavaScript, true
	case LangTypeScript:
		return complexity.LangTypeScript, true
	case LangTSX:
		return complexity.LangTSX, true
	case LangPython:
		return complexity.LangPython, true
	case LangRust:
		return complexity.LangRust, true
	case LangJava:
		return complexity.LangJava, true
	case LangKotlin:
		return complexity.LangKotlin, true
	default:
		return "", false
	}
}

// cDecisionNodeTypes are the C node types that add a decision point.
var cDecisionNodeTypes = []string{
	"if_statement", "for_statement", "while_statement", "do_statement",
	"case_statement", "binary_expression",
}

// complexityFor computes cyclomatic complexity for a function/method node
// (supplemented metadata, §4.2 "Complexity metadata").
func complexityFor(node *sitter.Node, source []byte, lang Language) int {
	if cLang, ok := complexityLangFor(lang); ok {
		score := 1
		for _, dn := range findNodes(node, complexity.GetDecisionNodeTypes(cLang)) {
			if dn.Type() == "binary_expression" || dn.Type() == "boolean_operator" {
				if complexity.IsBooleanOperator(dn, source, cLang) {
					score++
				}
				continue
			}
			score++
		}
		return score
	}

	if lang == LangC {
		score := 1
		for _, dn := range findNodes(node, cDecisionNodeTypes) {
			if dn.Type() == "binary_expression" {
				content := string(source[dn.StartByte():dn.EndByte()])
				if strings.Contains(content, "&&") || strings.Contains(content, "||") {
					score++
				}
				continue
			}
			score++
		}
		return score
	}

	return 0
}

// findNodes collects every descendant of root (inclusive) whose type is in
// types.
func findNodes(root *sitter.Node, types []string) []*sitter.Node {
	if root == nil || len(types) == 0 {
		return nil
	}

	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}

	var out []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if set[n.Type()] {
			out = append(out, n)
		}
		for i := uint32(0); i < n.ChildCount(); i++ {
			walk(n.Child(int(i)))
		}
	}
	walk(root)
	return out
}
