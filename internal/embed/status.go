package embed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TableStatus reports one entity table's embedding coverage within a repo
// schema (§6 /api/maintenance/embedding-status).
type TableStatus struct {
	Table        Table  `json:"table"`
	Total        int    `json:"total"`
	Embedded     int    `json:"embedded"`
	Missing      int    `json:"missing"`
	ModelCurrent string `json:"modelCurrent,omitempty"`
}

// allTables is iterated by Status; TableSummary's own vector-index status
// lives in vectorindex.go's Table-scoped helpers.
var allTables = []Table{TableChunk, TableDocument, TableSummary}

// Status reports embedding coverage for every entity table in schemaName.
func (e *Embedder) Status(ctx context.Context, schemaName string) ([]TableStatus, error) {
	schema := quoteSchema(schemaName)

	out := make([]TableStatus, 0, len(allTables))
	for _, table := range allTables {
		entityTable := pgx.Identifier{string(table)}.Sanitize()
		embTable := pgx.Identifier{embeddingTableFor(table)}.Sanitize()

		var total, embedded int
		if err := e.store.Pool().QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s.%s`, schema, entityTable)).Scan(&total); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		if err := e.store.Pool().QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s.%s`, schema, embTable)).Scan(&embedded); err != nil {
			return nil, fmt.Errorf("count %s embeddings: %w", table, err)
		}

		var model string
		_ = e.store.Pool().QueryRow(ctx, fmt.Sprintf(`SELECT model_name FROM %s.%s ORDER BY created_at DESC LIMIT 1`, schema, embTable)).Scan(&model)

		out = append(out, TableStatus{
			Table:        table,
			Total:        total,
			Embedded:     embedded,
			Missing:      total - embedded,
			ModelCurrent: model,
		})
	}
	return out, nil
}
