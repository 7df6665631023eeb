package indexer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGitignoreFiltersPatterns(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\nbuild/\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	filter := loadGitignore(dir, nil)

	if !filter.skipFile("debug.log") {
		t.Error("expected debug.log to be skipped")
	}
	if filter.skipFile("main.go") {
		t.Error("did not expect main.go to be skipped")
	}
	if !filter.skipDir("build", "build") {
		t.Error("expected build/ to be skipped")
	}
}

func TestLoadGitignoreDefaultDirs(t *testing.T) {
	dir := t.TempDir()
	filter := loadGitignore(dir, nil)

	if !filter.skipDir("node_modules", "node_modules") {
		t.Error("expected node_modules to always be skipped")
	}
	if !filter.skipDir(".git", ".git") {
		t.Error("expected .git to always be skipped")
	}
	if filter.skipDir("src", "src") {
		t.Error("did not expect src to be skipped")
	}
}

func TestLoadGitignoreExtraExcludes(t *testing.T) {
	dir := t.TempDir()
	filter := loadGitignore(dir, []string{"*.generated.go"})

	if !filter.skipFile("wire.generated.go") {
		t.Error("expected extra exclude pattern to apply")
	}
}

func TestLoadGitignoreCombinesFileAndExtras(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	filter := loadGitignore(dir, []string{"*.tmp"})

	if !filter.skipFile("debug.log") {
		t.Error("expected .gitignore pattern to still apply")
	}
	if !filter.skipFile("scratch.tmp") {
		t.Error("expected extra exclude pattern to apply alongside .gitignore")
	}
}

func TestLoadGitignoreNoFile(t *testing.T) {
	dir := t.TempDir()
	filter := loadGitignore(dir, nil)
	if filter.skipFile("main.go") {
		t.Error("did not expect main.go to be skipped with no .gitignore")
	}
}
