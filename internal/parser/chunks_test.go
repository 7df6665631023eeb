package parser

import "testing"

func TestMakeChunksHeaderOnly(t *testing.T) {
	source := []byte("line one\nline two\nline three\n")
	chunks := MakeChunks("empty.go", LangGo, source, nil)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 header chunk, got %d", len(chunks))
	}
	if chunks[0].Kind != ChunkHeader {
		t.Errorf("Kind = %v, want header", chunks[0].Kind)
	}
	if chunks[0].StartLine != 1 {
		t.Errorf("StartLine = %d, want 1", chunks[0].StartLine)
	}
}

func TestMakeChunksHeaderAndSymbols(t *testing.T) {
	source := []byte("package demo\n\nfunc a() {}\n\nfunc b() {}\n")
	symbols := []Symbol{
		{ID: SymbolID("f.go", "a", 3), FilePath: "f.go", SimpleName: "a", StartLine: 3, EndLine: 3},
		{ID: SymbolID("f.go", "b", 5), FilePath: "f.go", SimpleName: "b", StartLine: 5, EndLine: 5},
	}

	chunks := MakeChunks("f.go", LangGo, source, symbols)
	if len(chunks) != 3 {
		t.Fatalf("expected 1 header + 2 symbol chunks, got %d", len(chunks))
	}
	if chunks[0].Kind != ChunkHeader || chunks[0].EndLine != 2 {
		t.Errorf("header chunk = %+v, want EndLine 2", chunks[0])
	}
	if chunks[1].SymbolID != symbols[0].ID {
		t.Errorf("chunk 1 symbol id mismatch")
	}
	if chunks[2].SymbolID != symbols[1].ID {
		t.Errorf("chunk 2 symbol id mismatch")
	}
	for _, c := range chunks {
		if c.ContentHash == "" {
			t.Error("every chunk should carry a content hash")
		}
	}
}

func TestMakeChunksSkipsNestedSymbols(t *testing.T) {
	symbols := []Symbol{
		{SimpleName: "Worker", StartLine: 3, EndLine: 10},
		{SimpleName: "run", ContainerName: "Worker", StartLine: 4, EndLine: 6},
	}
	top := topLevelSymbols(symbols)
	if len(top) != 1 || top[0].SimpleName != "Worker" {
		t.Errorf("topLevelSymbols() = %+v, want only Worker", top)
	}
}
