package indexer

import (
	"context"
	"fmt"
)

// resolveEdges runs the indexer's two-pass (really three-step) edge target
// resolution after every file in the run has its symbols persisted (§4.3
// step 6): exact FQN match, then same-file simple-name match, then
// globally-unique simple-name match. Edges with no single candidate are
// left unresolved, carrying only to_name.
func (ix *Indexer) resolveEdges(ctx context.Context, schemaName string) (int, error) {
	schema := quoteSchema(schemaName)
	var resolved int

	steps := []string{
		// a. exact FQN match
		fmt.Sprintf(`
UPDATE %[1]s.edge e SET to_symbol_id = s.id
FROM %[1]s.symbol s
WHERE e.to_symbol_id IS NULL AND e.to_name IS NOT NULL AND s.fqn = e.to_name`, schema),

		// b. simple-name match within the same file
		fmt.Sprintf(`
UPDATE %[1]s.edge e SET to_symbol_id = (
  SELECT s.id FROM %[1]s.symbol s
  WHERE s.file_id = e.evidence_file_id AND s.simple_name = e.to_name
  LIMIT 1
)
WHERE e.to_symbol_id IS NULL AND e.to_name IS NOT NULL
  AND EXISTS (
    SELECT 1 FROM %[1]s.symbol s
    WHERE s.file_id = e.evidence_file_id AND s.simple_name = e.to_name
  )`, schema),

		// c. globally unique simple-name match across the repo
		fmt.Sprintf(`
UPDATE %[1]s.edge e SET to_symbol_id = sub.only_id
FROM (
  SELECT simple_name, min(id) AS only_id, count(*) AS c
  FROM %[1]s.symbol
  GROUP BY simple_name
) sub
WHERE e.to_symbol_id IS NULL AND e.to_name IS NOT NULL
  AND sub.simple_name = e.to_name AND sub.c = 1`, schema),
	}

	for _, stmt := range steps {
		tag, err := ix.store.Pool().Exec(ctx, stmt)
		if err != nil {
			return resolved, err
		}
		resolved += int(tag.RowsAffected())
	}

	return resolved, nil
}

// countUnresolvedEdges reports edges left with to_name only, for Stats.
func (ix *Indexer) countUnresolvedEdges(ctx context.Context, schemaName string) (int, error) {
	var n int
	err := ix.store.Pool().QueryRow(ctx, fmt.Sprintf(
		`SELECT count(*) FROM %s.edge WHERE to_symbol_id IS NULL AND to_name IS NOT NULL`,
		quoteSchema(schemaName))).Scan(&n)
	return n, err
}
