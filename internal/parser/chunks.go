package parser

import (
	"sort"
	"strings"

	"ckb/internal/hashing"
)

// MakeChunks builds the file-header chunk plus one chunk per top-level
// symbol (§4.2). Chunks are contiguous line ranges and carry a content hash
// used by the Embedder's dedup-by-hash rule.
func MakeChunks(path string, lang Language, source []byte, symbols []Symbol) []Chunk {
	lines := splitLines(source)
	topLevel := topLevelSymbols(symbols)

	var out []Chunk

	headerEnd := 0
	if len(topLevel) > 0 {
		headerEnd = topLevel[0].StartLine - 1
	} else {
		headerEnd = len(lines)
	}
	if headerEnd > 0 {
		content := joinLines(lines, 1, headerEnd)
		out = append(out, Chunk{
			ID:          ChunkID(path, ChunkHeader, 1),
			FilePath:    path,
			StartLine:   1,
			EndLine:     headerEnd,
			Content:     content,
			ContentHash: hashing.ContentHash([]byte(content)),
			Language:    lang,
			Kind:        ChunkHeader,
		})
	}

	for _, sym := range topLevel {
		content := joinLines(lines, sym.StartLine, sym.EndLine)
		out = append(out, Chunk{
			ID:          ChunkID(path, ChunkSymbol, sym.StartLine),
			FilePath:    path,
			SymbolID:    sym.ID,
			StartLine:   sym.StartLine,
			EndLine:     sym.EndLine,
			Content:     content,
			ContentHash: hashing.ContentHash([]byte(content)),
			Language:    lang,
			Kind:        ChunkSymbol,
		})
	}

	return out
}

// topLevelSymbols keeps only symbols whose line range is not nested inside
// another symbol's line range (e.g. a Python/Java method inside its class is
// dropped in favor of the enclosing class chunk; a Go method, which is
// lexically top-level despite carrying a receiver container name, is kept),
// sorted by start_line per the indexer's ordering rule (§4.3 "Ordering and
// tie-breaks").
func topLevelSymbols(symbols []Symbol) []Symbol {
	var out []Symbol
	for _, s := range symbols {
		nested := false
		for _, other := range symbols {
			if other.StartLine == s.StartLine && other.EndLine == s.EndLine {
				continue
			}
			if other.StartLine <= s.StartLine && other.EndLine >= s.EndLine {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartLine < out[j].StartLine })
	return out
}

func splitLines(source []byte) []string {
	return strings.Split(string(source), "\n")
}

// joinLines returns the 1-indexed, inclusive [start, end] line range.
func joinLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}
