// Package parser implements the Parser (C3 §4.2): language-agnostic
// structural extraction. Given a file's path, detected language, and bytes,
// it produces Symbols, Edges, and Chunks ready for the Indexer to persist.
package parser

import (
	"time"

	"github.com/google/uuid"
)

// Language is a detected source language, matching the file.language column.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
	LangC          Language = "c"
	LangSQL        Language = "sql"
	LangUnknown    Language = ""
)

// SymbolKind is the kind column stored on symbol rows.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindStruct    SymbolKind = "struct"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
)

// EdgeType is the edge_type column stored on edge rows.
type EdgeType string

const (
	EdgeImports   EdgeType = "IMPORTS"
	EdgeCalls     EdgeType = "CALLS"
	EdgeInherits  EdgeType = "INHERITS"
	EdgeImplements EdgeType = "IMPLEMENTS"
)

// ChunkKind distinguishes the file-header chunk from per-symbol chunks.
type ChunkKind string

const (
	ChunkHeader ChunkKind = "header"
	ChunkSymbol ChunkKind = "symbol"
)

// symbolNamespace and chunkNamespace seed the deterministic UUIDv5-style ids
// (§4.3 step 5: "stable ids per (file, fqn, start_line)" / "per (file, kind,
// start_line)") so re-parsing an unchanged file reproduces the same ids and
// the indexer's upsert is a true no-op.
var (
	symbolNamespace = uuid.MustParse("6f6d9b0e-6e2b-4e9c-9a8f-2a6c9a6c9a6c")
	chunkNamespace  = uuid.MustParse("a3d9f3b0-0c1e-4e7a-9c3d-8e6b8a1f2d3e")
)

// SymbolID derives the stable id for a symbol from its file, fqn, and start
// line, as required by the indexer's per-file upsert transaction.
func SymbolID(filePath, fqn string, startLine int) uuid.UUID {
	key := filePath + "\x00" + fqn + "\x00" + itoa(startLine)
	return uuid.NewSHA1(symbolNamespace, []byte(key))
}

// ChunkID derives the stable id for a chunk from its file, kind, and start
// line.
func ChunkID(filePath string, kind ChunkKind, startLine int) uuid.UUID {
	key := filePath + "\x00" + string(kind) + "\x00" + itoa(startLine)
	return uuid.NewSHA1(chunkNamespace, []byte(key))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Symbol is one extracted declaration, prior to database assignment.
type Symbol struct {
	ID            uuid.UUID
	FilePath      string
	FQN           string
	SimpleName    string
	Kind          SymbolKind
	StartLine     int
	EndLine       int
	Signature     string
	Language      Language
	Complexity    int // cyclomatic complexity; 0 when not computed for this kind
	ContainerName string
}

// Edge is one extracted reference. ToSymbolID is left as uuid.Nil; edge
// target resolution happens in the indexer's two-pass pass (§4.3 step 6),
// since the Parser has no whole-repo symbol table.
type Edge struct {
	FromSymbolID    uuid.UUID
	ToSymbolID      uuid.UUID
	ToName          string
	Type            EdgeType
	EvidenceLine    int
}

// Chunk is one contiguous, content-hashed slice of a file: either the
// file-header chunk or a single top-level symbol's body.
type Chunk struct {
	ID          uuid.UUID
	FilePath    string
	SymbolID    uuid.UUID // uuid.Nil for the header chunk
	StartLine   int
	EndLine     int
	Content     string
	ContentHash string
	Language    Language
	Kind        ChunkKind
}

// FileResult bundles one file's full extraction, as returned by ParseFile.
type FileResult struct {
	Path      string
	Language  Language
	Sha       string
	Size      int64
	Symbols   []Symbol
	Edges     []Edge
	Chunks    []Chunk
	ParsedAt  time.Time
}
