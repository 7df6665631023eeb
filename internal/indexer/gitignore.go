package indexer

import (
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

// defaultIgnoreDirs are always skipped regardless of .gitignore content.
var defaultIgnoreDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	"__pycache__": true, ".venv": true, ".ckb": true, "dist": true, "build": true,
}

// pathFilter decides whether a candidate path should be walked/indexed.
type pathFilter struct {
	gi *ignore.GitIgnore
}

// loadGitignore reads .gitignore at the repo root, if present, and returns a
// filter combining it with the configured extra excludes (§4.3 step 1:
// "Filter using .gitignore (pathspec semantics) plus a configured ignore
// list").
func loadGitignore(rootPath string, extraExcludes []string) *pathFilter {
	lines := extraExcludes

	if data, err := os.ReadFile(filepath.Join(rootPath, ".gitignore")); err == nil {
		gi, err := ignore.CompileIgnoreLines(splitLines(string(data))...)
		if err == nil && len(lines) == 0 {
			return &pathFilter{gi: gi}
		}
		if err == nil {
			combined, cErr := ignore.CompileIgnoreLines(append(splitLines(string(data)), lines...)...)
			if cErr == nil {
				return &pathFilter{gi: combined}
			}
			return &pathFilter{gi: gi}
		}
	}

	if len(lines) > 0 {
		if gi, err := ignore.CompileIgnoreLines(lines...); err == nil {
			return &pathFilter{gi: gi}
		}
	}

	return &pathFilter{}
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// skipDir reports whether a directory entry should be pruned entirely.
func (f *pathFilter) skipDir(relPath, name string) bool {
	if defaultIgnoreDirs[name] {
		return true
	}
	if f.gi != nil && f.gi.MatchesPath(relPath+"/") {
		return true
	}
	return false
}

// skipFile reports whether a file should be excluded from indexing.
func (f *pathFilter) skipFile(relPath string) bool {
	if f.gi != nil && f.gi.MatchesPath(relPath) {
		return true
	}
	return false
}
