package parser

import (
	"path/filepath"
	"strings"
)

// DetectLanguage maps a file extension to a Language, per the extended set
// {py, js, ts, tsx, go, java, c, h, sql, rs, kt} (§4.2).
func DetectLanguage(path string) (Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".go":
		return LangGo, true
	case ".js", ".mjs", ".cjs", ".jsx":
		return LangJavaScript, true
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	case ".py", ".pyw":
		return LangPython, true
	case ".rs":
		return LangRust, true
	case ".java":
		return LangJava, true
	case ".kt", ".kts":
		return LangKotlin, true
	case ".c", ".h":
		return LangC, true
	case ".sql":
		return LangSQL, true
	default:
		return LangUnknown, false
	}
}

// HasGrammar reports whether this language has a tree-sitter grammar wired
// in (cgo builds). SQL has no bound grammar in the toolchain's language
// table, so SQL files are recorded as Files without symbol/edge extraction.
func HasGrammar(lang Language) bool {
	switch lang {
	case LangGo, LangJavaScript, LangTypeScript, LangTSX, LangPython, LangRust, LangJava, LangKotlin, LangC:
		return true
	default:
		return false
	}
}
