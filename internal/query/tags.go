package query

import (
	"context"
	"fmt"
)

// tagBoostPerMatch is the additive contribution of each matched tag to a
// candidate's tag_boost term, capped at 1.0 (§4.5 step 4: "a matched tag
// contributes a small additive boost").
const tagBoostPerMatch = 0.25

// loadTags returns entityID -> matched tag names for every id in ids,
// scoped to one entity_type within repoID's schema.
func (r *Retriever) loadTags(ctx context.Context, schemaName string, entityType string, repoID string, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	schema := quoteSchema(schemaName)

	rows, err := r.store.Pool().Query(ctx, fmt.Sprintf(`
SELECT et.entity_id, t.name
FROM %s.entity_tag et
JOIN ckb_control.tag t ON t.id = et.tag_id
WHERE et.repo_id = $1 AND et.entity_type = $2 AND et.entity_id = ANY($3)`, schema),
		repoID, entityType, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = append(out[id], name)
	}
	return out, rows.Err()
}

// passesTagFilter applies the boolean mask from Filters.TagsAll/TagsAny
// (§4.5 step 4). An empty filter always passes.
func passesTagFilter(tags []string, f Filters) bool {
	if len(f.TagsAll) == 0 && len(f.TagsAny) == 0 {
		return true
	}
	has := make(map[string]bool, len(tags))
	for _, t := range tags {
		has[t] = true
	}
	for _, t := range f.TagsAll {
		if !has[t] {
			return false
		}
	}
	if len(f.TagsAny) > 0 {
		any := false
		for _, t := range f.TagsAny {
			if has[t] {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	return true
}

// matchedFilterTags returns the subset of tags that satisfy f, for the
// explainability payload and the tag_boost computation.
func matchedFilterTags(tags []string, f Filters) []string {
	wanted := make(map[string]bool, len(f.TagsAll)+len(f.TagsAny))
	for _, t := range f.TagsAll {
		wanted[t] = true
	}
	for _, t := range f.TagsAny {
		wanted[t] = true
	}
	if len(wanted) == 0 {
		return nil
	}
	var matched []string
	for _, t := range tags {
		if wanted[t] {
			matched = append(matched, t)
		}
	}
	return matched
}

func tagBoostFor(matched []string) float64 {
	boost := float64(len(matched)) * tagBoostPerMatch
	if boost > 1.0 {
		boost = 1.0
	}
	return boost
}
