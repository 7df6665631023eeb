//go:build cgo

package parser

// functionNodeTypes returns the node types that introduce a function or
// method declaration for lang.
func functionNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"function_declaration", "method_declaration"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"function_declaration", "method_definition", "arrow_function"}
	case LangPython:
		return []string{"function_definition"}
	case LangRust:
		return []string{"function_item"}
	case LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	case LangKotlin:
		return []string{"function_declaration"}
	case LangC:
		return []string{"function_definition"}
	default:
		return nil
	}
}

// typeNodeTypes returns the node types that introduce a type-ish
// declaration (class/struct/interface/trait/enum) for lang.
func typeNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"type_spec"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"class_declaration", "interface_declaration", "type_alias_declaration"}
	case LangPython:
		return []string{"class_definition"}
	case LangRust:
		return []string{"struct_item", "enum_item", "trait_item"}
	case LangJava:
		return []string{"class_declaration", "interface_declaration", "enum_declaration"}
	case LangKotlin:
		return []string{"class_declaration", "interface_declaration", "object_declaration"}
	case LangC:
		return []string{"struct_specifier", "type_definition"}
	default:
		return nil
	}
}

// importNodeTypes returns the node types that are import/include statements
// for lang.
func importNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"import_spec"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"import_statement"}
	case LangPython:
		return []string{"import_statement", "import_from_statement"}
	case LangRust:
		return []string{"use_declaration"}
	case LangJava:
		return []string{"import_declaration"}
	case LangKotlin:
		return []string{"import_header"}
	case LangC:
		return []string{"preproc_include"}
	default:
		return nil
	}
}

// callNodeTypes returns the node types that represent a call expression for
// lang.
func callNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"call_expression"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"call_expression"}
	case LangPython:
		return []string{"call"}
	case LangRust:
		return []string{"call_expression", "method_call_expression"}
	case LangJava:
		return []string{"method_invocation", "object_creation_expression"}
	case LangKotlin:
		return []string{"call_expression"}
	case LangC:
		return []string{"call_expression"}
	default:
		return nil
	}
}
