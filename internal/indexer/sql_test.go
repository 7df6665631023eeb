package indexer

import "testing"

func TestQuoteSchema(t *testing.T) {
	got := quoteSchema("ckb_repo_myrepo")
	want := `"ckb_repo_myrepo"`
	if got != want {
		t.Errorf("quoteSchema() = %q, want %q", got, want)
	}
}
