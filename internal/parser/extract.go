//go:build cgo

package parser

import (
	"context"
	"fmt"
	"time"

	"ckb/internal/hashing"
)

// ParseFile runs the full Parser contract for one file: detect (already
// known to the caller as lang), parse, extract_symbols, extract_edges,
// make_chunks.
func ParseFile(ctx context.Context, path string, lang Language, source []byte) (*FileResult, error) {
	sha := hashing.ContentHash(source)

	result := &FileResult{
		Path:     path,
		Language: lang,
		Sha:      sha,
		Size:     int64(len(source)),
		ParsedAt: nowFunc(),
	}

	if !HasGrammar(lang) {
		// No bound tree-sitter grammar (e.g. sql): record the File with no
		// symbols/edges, and a single header chunk covering the whole file.
		result.Chunks = MakeChunks(path, lang, source, nil)
		return result, nil
	}

	p := NewParser()
	root, err := p.Parse(ctx, source, lang)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	result.Symbols = extractSymbols(root, source, lang, path)
	result.Edges = extractEdges(root, source, lang, path)
	result.Chunks = MakeChunks(path, lang, source, result.Symbols)

	return result, nil
}

// nowFunc is a seam for deterministic tests.
var nowFunc = time.Now
