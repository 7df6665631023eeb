package tags

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ckb/internal/logging"
	"ckb/internal/store"
)

// Syncer applies Rule matching to every file in a repo schema and upserts
// the resulting entity_tag rows (§4.7 TAG_RULES_SYNC).
type Syncer struct {
	store  *store.Store
	logger *logging.Logger
}

// New builds a Syncer over the given store.
func New(st *store.Store, logger *logging.Logger) *Syncer {
	return &Syncer{store: st, logger: logger}
}

// Result is the outcome of one TAG_RULES_SYNC run.
type Result struct {
	FilesScanned int
	TagsApplied  int
}

// Sync re-evaluates rules against every file in schemaName, under repoID,
// and upserts entity_tag (repo_id, entity_type='file', entity_id, tag_id)
// rows. Idempotent: re-running with unchanged files produces no new rows
// (§3 "entity_tag is idempotent under re-tagging with the same pair").
func (s *Syncer) Sync(ctx context.Context, repoID uuid.UUID, schemaName string, rules []Rule) (*Result, error) {
	schema := pgx.Identifier{schemaName}.Sanitize()

	rows, err := s.store.Pool().Query(ctx, fmt.Sprintf(`SELECT id, path FROM %s.file`, schema))
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	type fileRow struct {
		id   uuid.UUID
		path string
	}
	var files []fileRow
	for rows.Next() {
		var f fileRow
		if err := rows.Scan(&f.id, &f.path); err != nil {
			rows.Close()
			return nil, err
		}
		files = append(files, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &Result{FilesScanned: len(files)}
	for _, f := range files {
		for _, tagName := range Match(rules, f.path) {
			tagID, err := s.ensureTag(ctx, tagName)
			if err != nil {
				return nil, fmt.Errorf("ensure tag %q: %w", tagName, err)
			}
			if _, err := s.store.Pool().Exec(ctx, fmt.Sprintf(`
INSERT INTO %s.entity_tag (repo_id, entity_type, entity_id, tag_id, confidence, source)
VALUES ($1, 'file', $2, $3, 1.0, 'rule')
ON CONFLICT (repo_id, entity_type, entity_id, tag_id) DO NOTHING`, schema),
				repoID, f.id, tagID); err != nil {
				return nil, fmt.Errorf("upsert entity_tag: %w", err)
			}
			result.TagsApplied++
		}
	}
	return result, nil
}

// ensureTag returns tag_id for name, creating the control-schema row if
// absent.
func (s *Syncer) ensureTag(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.store.Pool().QueryRow(ctx, `
INSERT INTO ckb_control.tag (id, name) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`, uuid.New(), name).Scan(&id)
	return id, err
}
