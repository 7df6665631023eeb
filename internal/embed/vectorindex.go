package embed

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
)

// maybeRebuildIndex accumulates inserted count and, once it exceeds
// IndexRebuildFraction of the table's current row count, rebuilds the
// vector index inside a single advisory-locked critical section so queries
// keep serving a working index throughout (§4.4 "Vector-index
// maintenance").
func (e *Embedder) maybeRebuildIndex(ctx context.Context, schemaName string, table Table, inserted int) error {
	if inserted == 0 {
		return nil
	}
	schema := quoteSchema(schemaName)

	var sinceLastBuild int
	err := e.store.Pool().QueryRow(ctx, fmt.Sprintf(`
INSERT INTO %s.vector_index_state (table_name, insertions_since_build)
VALUES ($1, $2)
ON CONFLICT (table_name) DO UPDATE SET insertions_since_build = %[1]s.vector_index_state.insertions_since_build + $2
RETURNING insertions_since_build`, schema), string(table), inserted).Scan(&sinceLastBuild)
	if err != nil {
		return fmt.Errorf("update vector index state: %w", err)
	}

	embTable := pgx.Identifier{embeddingTableFor(table)}.Sanitize()
	var rowCount int
	if err := e.store.Pool().QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s.%s`, schema, embTable)).Scan(&rowCount); err != nil {
		return fmt.Errorf("count %s rows: %w", embTable, err)
	}
	if rowCount == 0 {
		return nil
	}

	threshold := e.config.IndexRebuildFraction
	if threshold <= 0 {
		threshold = 0.20
	}
	if float64(sinceLastBuild) < threshold*float64(rowCount) {
		return nil
	}

	return e.rebuildIndex(ctx, schemaName, table, rowCount)
}

// rebuildIndex drops and recreates the vector index for table, selecting
// IVFFlat (lists = max(10, sqrt(N))) below 100k rows and HNSW (m=16,
// ef_construction=64) at or above it (§4.4).
func (e *Embedder) rebuildIndex(ctx context.Context, schemaName string, table Table, rowCount int) error {
	schema := quoteSchema(schemaName)
	embTable := pgx.Identifier{embeddingTableFor(table)}.Sanitize()
	idxName := pgx.Identifier{embeddingTableFor(table) + "_vec_idx"}.Sanitize()

	tx, err := e.store.Pool().Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// One advisory lock per (schema, table) keeps rebuilds serialized
	// without blocking reads against the existing index.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, schemaName+"."+string(table)); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS %s.%s`, schema, idxName)); err != nil {
		return err
	}

	var createStmt string
	if rowCount < 100_000 {
		lists := int(math.Max(10, math.Sqrt(float64(rowCount))))
		createStmt = fmt.Sprintf(`CREATE INDEX %s ON %s.%s USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d)`,
			idxName, schema, embTable, lists)
	} else {
		createStmt = fmt.Sprintf(`CREATE INDEX %s ON %s.%s USING hnsw (embedding vector_cosine_ops) WITH (m = 16, ef_construction = 64)`,
			idxName, schema, embTable)
	}
	if _, err := tx.Exec(ctx, createStmt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`
UPDATE %s.vector_index_state SET insertions_since_build = 0, last_build_at = now() WHERE table_name = $1`, schema),
		string(table)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// dropVectorIndex drops table's vector index without creating a new one
// (reembed_table's optional rebuild_index flag, §4.4).
func (e *Embedder) dropVectorIndex(ctx context.Context, schemaName string, table Table) error {
	schema := quoteSchema(schemaName)
	idxName := pgx.Identifier{embeddingTableFor(table) + "_vec_idx"}.Sanitize()
	_, err := e.store.Pool().Exec(ctx, fmt.Sprintf(`DROP INDEX IF EXISTS %s.%s`, schema, idxName))
	return err
}
