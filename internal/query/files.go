package query

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ckb/internal/errors"
	"ckb/internal/store"
)

// FileInfo is one indexed file, for the list_files MCP tool (§6).
type FileInfo struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Size     int64  `json:"size"`
}

// ListFiles returns every file indexed in repo's schema, optionally narrowed
// by pathGlob (§6 list_files).
func (r *Retriever) ListFiles(ctx context.Context, repo *store.RepoEntry, pathGlob string) ([]FileInfo, error) {
	schema := quoteSchema(repo.SchemaName)
	rows, err := r.store.Pool().Query(ctx, fmt.Sprintf(
		`SELECT path, language, size FROM %s.file ORDER BY path`, schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FileInfo
	for rows.Next() {
		var f FileInfo
		if err := rows.Scan(&f.Path, &f.Language, &f.Size); err != nil {
			return nil, err
		}
		if pathGlob != "" {
			if ok, _ := filepath.Match(pathGlob, f.Path); !ok {
				continue
			}
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ReadFile returns path's current on-disk content, after checking it is a
// file this repo has indexed — a membership check against repo's schema, not
// a content cache, so the result always reflects the working tree (§6
// read_file).
func (r *Retriever) ReadFile(ctx context.Context, repo *store.RepoEntry, path string) (string, error) {
	schema := quoteSchema(repo.SchemaName)
	var exists bool
	if err := r.store.Pool().QueryRow(ctx, fmt.Sprintf(
		`SELECT exists(SELECT 1 FROM %s.file WHERE path = $1)`, schema), path).Scan(&exists); err != nil {
		return "", fmt.Errorf("check file membership: %w", err)
	}
	if !exists {
		return "", errors.New(errors.IOError, fmt.Sprintf("%s is not indexed for repo %s", path, repo.Name))
	}

	full := filepath.Join(repo.RootPath, filepath.FromSlash(path))
	if !strings.HasPrefix(full, filepath.Clean(repo.RootPath)+string(filepath.Separator)) {
		return "", errors.New(errors.IOError, fmt.Sprintf("path %s escapes repo root", path))
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", full, err)
	}
	return string(content), nil
}

// PatternScanResult is one chunk matching a pattern_scan regular expression.
type PatternScanResult struct {
	Path      string `json:"path"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Content   string `json:"content"`
}

// PatternScan searches every indexed chunk's content for a POSIX regular
// expression, relying on Postgres' own regex engine so large repos never
// pull full file contents into the daemon process (§6 pattern_scan).
func (r *Retriever) PatternScan(ctx context.Context, repo *store.RepoEntry, pattern string, limit int) ([]PatternScanResult, error) {
	if limit <= 0 {
		limit = 50
	}
	schema := quoteSchema(repo.SchemaName)
	rows, err := r.store.Pool().Query(ctx, fmt.Sprintf(`
SELECT f.path, c.start_line, c.end_line, c.content
FROM %s.chunk c JOIN %s.file f ON f.id = c.file_id
WHERE c.content ~ $1
ORDER BY f.path, c.start_line
LIMIT $2`, schema, schema), pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("pattern scan: %w", err)
	}
	defer rows.Close()

	var out []PatternScanResult
	for rows.Next() {
		var p PatternScanResult
		if err := rows.Scan(&p.Path, &p.StartLine, &p.EndLine, &p.Content); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
