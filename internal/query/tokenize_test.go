package query

import (
	"reflect"
	"testing"
)

func TestTsqueryTokensDropsStopWordsAndShortTokens(t *testing.T) {
	got := tsqueryTokens("how do I parse a go file with tree-sitter")
	want := []string{"do", "parse", "go", "file", "tree", "sitter"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tsqueryTokens() = %v, want %v", got, want)
	}
}

func TestTsqueryTokensDedups(t *testing.T) {
	got := tsqueryTokens("parser parser Parser")
	want := []string{"parser"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tsqueryTokens() = %v, want %v", got, want)
	}
}

func TestBuildOrTsqueryJoinsWithPipe(t *testing.T) {
	got := buildOrTsquery([]string{"parse", "file"})
	want := "parse:* | file:*"
	if got != want {
		t.Errorf("buildOrTsquery() = %q, want %q", got, want)
	}
}

func TestBuildOrTsqueryEscapesQuotes(t *testing.T) {
	got := buildOrTsquery([]string{"o'brien"})
	want := "o''brien:*"
	if got != want {
		t.Errorf("buildOrTsquery() = %q, want %q", got, want)
	}
}
