//go:build cgo

package parser

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
		ok   bool
	}{
		{"main.go", LangGo, true},
		{"app.py", LangPython, true},
		{"index.ts", LangTypeScript, true},
		{"component.tsx", LangTSX, true},
		{"Main.java", LangJava, true},
		{"lib.rs", LangRust, true},
		{"App.kt", LangKotlin, true},
		{"util.c", LangC, true},
		{"util.h", LangC, true},
		{"schema.sql", LangSQL, true},
		{"README.md", LangUnknown, false},
	}

	for _, tt := range tests {
		got, ok := DetectLanguage(tt.path)
		if ok != tt.ok || got != tt.want {
			t.Errorf("DetectLanguage(%q) = (%q, %v), want (%q, %v)", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFile_Go(t *testing.T) {
	source := []byte(`package demo

import "fmt"

type Greeter struct {
	Name string
}

func (g *Greeter) Greet() string {
	return fmt.Sprintf("hello, %s", g.Name)
}

func main() {
	g := &Greeter{Name: "world"}
	fmt.Println(g.Greet())
}
`)

	result, err := ParseFile(context.Background(), "demo.go", LangGo, source)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if result.Sha == "" {
		t.Error("expected a non-empty content sha")
	}

	var names []string
	for _, s := range result.Symbols {
		names = append(names, s.SimpleName)
	}
	wantSymbols := map[string]bool{"Greeter": true, "Greet": true, "main": true}
	for _, n := range names {
		if !wantSymbols[n] {
			t.Errorf("unexpected symbol %q in %v", n, names)
		}
	}
	if len(names) < 3 {
		t.Errorf("expected at least 3 symbols, got %v", names)
	}

	foundImport := false
	foundCall := false
	for _, e := range result.Edges {
		if e.Type == EdgeImports && e.ToName == "fmt" {
			foundImport = true
		}
		if e.Type == EdgeCalls && e.ToName == "Sprintf" {
			foundCall = true
		}
	}
	if !foundImport {
		t.Error("expected an IMPORTS edge to fmt")
	}
	if !foundCall {
		t.Error("expected a CALLS edge to Sprintf")
	}

	if len(result.Chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range result.Chunks {
		if c.ContentHash == "" {
			t.Errorf("chunk %d missing content hash", i)
		}
		if c.StartLine > c.EndLine {
			t.Errorf("chunk %d has inverted line range [%d,%d]", i, c.StartLine, c.EndLine)
		}
	}
}

func TestParseFile_Python(t *testing.T) {
	source := []byte(`import os


class Worker(object):
    def run(self):
        os.getcwd()


def main():
    Worker().run()
`)

	result, err := ParseFile(context.Background(), "demo.py", LangPython, source)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	var classSym *Symbol
	for i := range result.Symbols {
		if result.Symbols[i].SimpleName == "Worker" {
			classSym = &result.Symbols[i]
		}
	}
	if classSym == nil {
		t.Fatal("expected a Worker class symbol")
	}
	if classSym.Kind != KindClass {
		t.Errorf("Worker kind = %v, want class", classSym.Kind)
	}

	foundInherit := false
	for _, e := range result.Edges {
		if e.Type == EdgeInherits && e.ToName == "object" {
			foundInherit = true
		}
	}
	if !foundInherit {
		t.Error("expected an INHERITS edge to object")
	}

	// Worker is a top-level symbol; its method run() is nested inside it and
	// should not produce its own chunk.
	topLevelCount := 0
	for _, c := range result.Chunks {
		if c.Kind == ChunkSymbol {
			topLevelCount++
		}
	}
	if topLevelCount != 2 { // Worker, main
		t.Errorf("expected 2 top-level symbol chunks, got %d", topLevelCount)
	}
}

func TestParseFile_UnknownGrammar(t *testing.T) {
	result, err := ParseFile(context.Background(), "schema.sql", LangSQL, []byte("SELECT 1;\n"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(result.Symbols) != 0 {
		t.Errorf("expected no symbols for sql, got %d", len(result.Symbols))
	}
	if len(result.Chunks) != 1 {
		t.Errorf("expected a single header chunk for sql, got %d", len(result.Chunks))
	}
}

func TestSymbolIDStable(t *testing.T) {
	a := SymbolID("foo.go", "Greeter.Greet", 10)
	b := SymbolID("foo.go", "Greeter.Greet", 10)
	if a != b {
		t.Error("SymbolID should be deterministic for identical inputs")
	}

	c := SymbolID("foo.go", "Greeter.Greet", 11)
	if a == c {
		t.Error("SymbolID should differ when start line differs")
	}
}
