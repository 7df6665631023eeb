// Package indexer implements the Indexer (C4 §4.3): walking a repo's
// working tree, detecting which files changed, running each through the
// Parser, and upserting the result into the repo's schema, followed by
// cross-file edge target resolution.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ckb/internal/hashing"
	"ckb/internal/jobs"
	"ckb/internal/logging"
	"ckb/internal/parser"
	"ckb/internal/store"
)

// Indexer owns the full_index/reindex_file/reindex_many/sync_from_diff
// operations for one daemon instance, shared across all repos.
type Indexer struct {
	store  *store.Store
	logger *logging.Logger
	config Config
}

// New builds an Indexer over the given store.
func New(st *store.Store, logger *logging.Logger, cfg Config) *Indexer {
	return &Indexer{store: st, logger: logger, config: cfg}
}

// FullIndex walks repo.RootPath, upserts every changed file (skipping
// unchanged ones by content hash), resolves edges, and records
// repo_index_state (§4.3 full_index). Files are processed in sorted path
// order for deterministic chunk/symbol insertion.
func (ix *Indexer) FullIndex(ctx context.Context, repo *store.RepoEntry) (*jobs.Stats, error) {
	started := time.Now()
	filter := loadGitignore(repo.RootPath, ix.config.ExtraExcludes)
	stats := &jobs.Stats{}

	var paths []string
	err := filepath.WalkDir(repo.RootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(repo.RootPath, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && filter.skipDir(rel, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filter.skipFile(rel) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", repo.RootPath, err)
	}
	sort.Strings(paths)

	existing, err := ix.existingShas(ctx, repo.SchemaName)
	if err != nil {
		return nil, err
	}

	for _, rel := range paths {
		stats.FilesScanned++
		if err := ix.indexOne(ctx, repo, rel, existing, stats); err != nil {
			ix.logger.Warn("index file failed", map[string]interface{}{"repo": repo.Name, "path": rel, "error": err.Error()})
			stats.FailedFiles = append(stats.FailedFiles, rel)
		}
	}

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		seen[p] = true
	}
	for path := range existing {
		if !seen[path] {
			if err := ix.deleteFile(ctx, repo.SchemaName, path); err != nil {
				ix.logger.Warn("delete stale file failed", map[string]interface{}{"repo": repo.Name, "path": path, "error": err.Error()})
				continue
			}
		}
	}

	resolved, err := ix.resolveEdges(ctx, repo.SchemaName)
	if err != nil {
		return nil, fmt.Errorf("resolve edges: %w", err)
	}
	stats.EdgesResolved = resolved
	unresolved, err := ix.countUnresolvedEdges(ctx, repo.SchemaName)
	if err != nil {
		return nil, fmt.Errorf("count unresolved edges: %w", err)
	}
	stats.EdgesUnresolved = unresolved

	if err := ix.recordIndexState(ctx, repo.SchemaName, repo.ID); err != nil {
		return nil, fmt.Errorf("record index state: %w", err)
	}

	stats.Duration = time.Since(started).String()
	return stats, nil
}

// ReindexFile applies a single file change (§4.3 reindex_file).
func (ix *Indexer) ReindexFile(ctx context.Context, repo *store.RepoEntry, path string, op jobs.FileOp) error {
	if op == jobs.OpDelete {
		return ix.deleteFile(ctx, repo.SchemaName, path)
	}

	full := filepath.Join(repo.RootPath, filepath.FromSlash(path))
	source, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := ix.parseAndUpsert(ctx, repo.SchemaName, path, source); err != nil {
		return err
	}
	_, err = ix.resolveEdges(ctx, repo.SchemaName)
	return err
}

// ReindexMany applies a batch of file changes, resolving edges once at the
// end rather than after each file (§4.3 reindex_many).
func (ix *Indexer) ReindexMany(ctx context.Context, repo *store.RepoEntry, files []jobs.ReindexFilePayload) (*jobs.Stats, error) {
	started := time.Now()
	stats := &jobs.Stats{}

	for _, f := range files {
		stats.FilesScanned++
		var err error
		if f.Op == jobs.OpDelete {
			err = ix.deleteFile(ctx, repo.SchemaName, f.Path)
		} else {
			full := filepath.Join(repo.RootPath, filepath.FromSlash(f.Path))
			var source []byte
			source, err = os.ReadFile(full)
			if err == nil {
				err = ix.parseAndUpsert(ctx, repo.SchemaName, f.Path, source)
			}
		}
		if err != nil {
			ix.logger.Warn("reindex file failed", map[string]interface{}{"repo": repo.Name, "path": f.Path, "error": err.Error()})
			stats.FailedFiles = append(stats.FailedFiles, f.Path)
			continue
		}
		stats.FilesIndexed++
	}

	resolved, err := ix.resolveEdges(ctx, repo.SchemaName)
	if err != nil {
		return nil, fmt.Errorf("resolve edges: %w", err)
	}
	stats.EdgesResolved = resolved
	unresolved, err := ix.countUnresolvedEdges(ctx, repo.SchemaName)
	if err != nil {
		return nil, fmt.Errorf("count unresolved edges: %w", err)
	}
	stats.EdgesUnresolved = unresolved
	stats.Duration = time.Since(started).String()
	return stats, nil
}

// IncrementalSync runs detect_changes against the working tree (used by the
// file watcher's debounce handler) and either applies the changes directly
// or escalates to a full_index past IncrementalThreshold (§4.3 "Incremental
// detection").
func (ix *Indexer) IncrementalSync(ctx context.Context, repo *store.RepoEntry) (*jobs.Stats, error) {
	filter := loadGitignore(repo.RootPath, ix.config.ExtraExcludes)
	changes, err := ix.detectChanges(ctx, repo.SchemaName, repo.RootPath, filter)
	if err != nil {
		return nil, fmt.Errorf("detect changes: %w", err)
	}

	if len(changes) > ix.config.IncrementalThreshold {
		ix.logger.Info("escalating incremental sync to full_index", map[string]interface{}{
			"repo": repo.Name, "changed": len(changes), "threshold": ix.config.IncrementalThreshold,
		})
		return ix.FullIndex(ctx, repo)
	}

	files := make([]jobs.ReindexFilePayload, 0, len(changes))
	for _, c := range changes {
		op := jobs.OpUpsert
		if c.ChangeType == ChangeDeleted {
			op = jobs.OpDelete
		}
		files = append(files, jobs.ReindexFilePayload{Path: c.Path, Op: op})
	}
	return ix.ReindexMany(ctx, repo, files)
}

// SyncFromDiff reindexes exactly the files that differ between baseRef and
// headRef, escalating to a FullIndex when the change set is larger than
// IncrementalThreshold (§4.3 sync_from_diff, escalation rule).
func (ix *Indexer) SyncFromDiff(ctx context.Context, repo *store.RepoEntry, baseRef, headRef string) (*jobs.Stats, error) {
	changes, err := detectDiffChanges(ctx, repo.RootPath, baseRef, headRef)
	if err != nil {
		return nil, fmt.Errorf("detect diff: %w", err)
	}

	if len(changes) > ix.config.IncrementalThreshold {
		ix.logger.Info("escalating sync_from_diff to full_index", map[string]interface{}{
			"repo": repo.Name, "changed": len(changes), "threshold": ix.config.IncrementalThreshold,
		})
		return ix.FullIndex(ctx, repo)
	}

	files := make([]jobs.ReindexFilePayload, 0, len(changes))
	for _, c := range changes {
		op := jobs.OpUpsert
		if c.ChangeType == ChangeDeleted {
			op = jobs.OpDelete
		}
		files = append(files, jobs.ReindexFilePayload{Path: c.Path, Op: op})
	}
	return ix.ReindexMany(ctx, repo, files)
}

// indexOne hashes and (if changed) parses+upserts a single file discovered
// during a FullIndex walk, updating stats in place.
func (ix *Indexer) indexOne(ctx context.Context, repo *store.RepoEntry, rel string, existing map[string]string, stats *jobs.Stats) error {
	full := filepath.Join(repo.RootPath, filepath.FromSlash(rel))
	source, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}

	sha := hashing.ContentHash(source)
	if prev, ok := existing[rel]; ok && prev == sha {
		stats.FilesSkipped++
		return nil
	}

	if err := ix.parseAndUpsert(ctx, repo.SchemaName, rel, source); err != nil {
		return err
	}
	stats.FilesIndexed++
	return nil
}

// parseAndUpsert runs detect_language -> parse -> extract_symbols ->
// extract_edges -> make_chunks and upserts the result.
func (ix *Indexer) parseAndUpsert(ctx context.Context, schemaName, path string, source []byte) error {
	lang, ok := parser.DetectLanguage(path)
	if !ok {
		return nil
	}

	fr, err := parser.ParseFile(ctx, path, lang, source)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return ix.upsertFile(ctx, schemaName, fr)
}

// existingShas loads the current path->sha map for a schema.
func (ix *Indexer) existingShas(ctx context.Context, schemaName string) (map[string]string, error) {
	rows, err := ix.store.Pool().Query(ctx, `SELECT path, sha FROM `+quoteSchema(schemaName)+`.file`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, sha string
		if err := rows.Scan(&path, &sha); err != nil {
			return nil, err
		}
		out[path] = sha
	}
	return out, rows.Err()
}

// recordIndexState upserts repo_index_state.last_indexed_at for repoID.
func (ix *Indexer) recordIndexState(ctx context.Context, schemaName string, repoID interface{}) error {
	_, err := ix.store.Pool().Exec(ctx, fmt.Sprintf(`
INSERT INTO %s.repo_index_state (repo_id, last_indexed_at)
VALUES ($1, now())
ON CONFLICT (repo_id) DO UPDATE SET last_indexed_at = EXCLUDED.last_indexed_at`, quoteSchema(schemaName)), repoID)
	return err
}
