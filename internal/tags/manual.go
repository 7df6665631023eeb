package tags

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TagEntity attaches tagName to (entityType, entityID) in schemaName under
// repoID with source='manual' (§6 tag_entity MCP tool). Idempotent: retagging
// the same pair upserts the confidence instead of erroring.
func (s *Syncer) TagEntity(ctx context.Context, repoID uuid.UUID, schemaName, entityType, entityID, tagName string) error {
	schema := pgx.Identifier{schemaName}.Sanitize()

	tagID, err := s.ensureTag(ctx, tagName)
	if err != nil {
		return fmt.Errorf("ensure tag %q: %w", tagName, err)
	}

	_, err = s.store.Pool().Exec(ctx, fmt.Sprintf(`
INSERT INTO %s.entity_tag (repo_id, entity_type, entity_id, tag_id, confidence, source)
VALUES ($1, $2, $3, $4, 1.0, 'manual')
ON CONFLICT (repo_id, entity_type, entity_id, tag_id)
DO UPDATE SET confidence = 1.0, source = 'manual'`, schema),
		repoID, entityType, entityID, tagID)
	if err != nil {
		return fmt.Errorf("upsert entity_tag: %w", err)
	}
	return nil
}

// Tag is one control-schema tag, with how many entities in schemaName carry
// it (§6 list_tags MCP tool).
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ListTags returns every tag known to the control schema alongside its usage
// count within schemaName's entity_tag table.
func (s *Syncer) ListTags(ctx context.Context, schemaName string) ([]Tag, error) {
	schema := pgx.Identifier{schemaName}.Sanitize()

	rows, err := s.store.Pool().Query(ctx, fmt.Sprintf(`
SELECT t.name, count(et.tag_id)
FROM ckb_control.tag t
LEFT JOIN %s.entity_tag et ON et.tag_id = t.id
GROUP BY t.name
ORDER BY t.name`, schema))
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.Name, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
