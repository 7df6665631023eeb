package embed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
)

// IndexState is one table's vector_index_state row, reported by
// /api/maintenance/vector-indexes.
type IndexState struct {
	Table                Table      `json:"table"`
	InsertionsSinceBuild int        `json:"insertionsSinceBuild"`
	LastBuildAt          *time.Time `json:"lastBuildAt,omitempty"`
	RecommendedKind      string     `json:"recommendedKind"`
}

// ListIndexStates reports every entity table's vector_index_state row in
// schemaName, for /api/maintenance/vector-indexes.
func (e *Embedder) ListIndexStates(ctx context.Context, schemaName string) ([]IndexState, error) {
	schema := quoteSchema(schemaName)

	out := make([]IndexState, 0, len(allTables))
	for _, table := range allTables {
		var sinceBuild int
		var lastBuild *time.Time
		err := e.store.Pool().QueryRow(ctx, fmt.Sprintf(`
SELECT insertions_since_build, last_build_at FROM %s.vector_index_state WHERE table_name = $1`, schema),
			string(table)).Scan(&sinceBuild, &lastBuild)
		if err != nil {
			// No row yet (table never embedded) — report a zeroed state.
			out = append(out, IndexState{Table: table, RecommendedKind: "ivfflat"})
			continue
		}

		rowCount, countErr := e.rowCount(ctx, schemaName, table)
		kind := "ivfflat"
		if countErr == nil && rowCount >= 100_000 {
			kind = "hnsw"
		}

		out = append(out, IndexState{
			Table:                table,
			InsertionsSinceBuild: sinceBuild,
			LastBuildAt:          lastBuild,
			RecommendedKind:      kind,
		})
	}
	return out, nil
}

func (e *Embedder) rowCount(ctx context.Context, schemaName string, table Table) (int, error) {
	schema := quoteSchema(schemaName)
	embTable := embeddingTableFor(table)
	var n int
	err := e.store.Pool().QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s.%s`, schema, pgx.Identifier{embTable}.Sanitize())).Scan(&n)
	return n, err
}

// RebuildIndex forces an immediate vector-index rebuild for table,
// regardless of the insertions-since-build threshold (§6
// /api/maintenance/vector-indexes/rebuild).
func (e *Embedder) RebuildIndex(ctx context.Context, schemaName string, table Table) error {
	rowCount, err := e.rowCount(ctx, schemaName, table)
	if err != nil {
		return fmt.Errorf("count %s rows: %w", table, err)
	}
	if rowCount == 0 {
		return nil
	}
	return e.rebuildIndex(ctx, schemaName, table, rowCount)
}

// SwitchIndexKind drops and recreates table's vector index using the
// requested kind explicitly (ivfflat or hnsw), overriding the row-count
// heuristic (§6 /api/maintenance/vector-indexes/switch).
func (e *Embedder) SwitchIndexKind(ctx context.Context, schemaName string, table Table, kind string) error {
	rowCount, err := e.rowCount(ctx, schemaName, table)
	if err != nil {
		return fmt.Errorf("count %s rows: %w", table, err)
	}
	if kind == "hnsw" {
		// Force the HNSW branch regardless of row count by reporting a
		// row count at/above the threshold to rebuildIndex's selector.
		if rowCount < 100_000 {
			rowCount = 100_000
		}
	} else if kind == "ivfflat" && rowCount >= 100_000 {
		rowCount = int(math.Max(1, 99_999))
	}
	return e.rebuildIndex(ctx, schemaName, table, rowCount)
}
