package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"ckb/internal/errors"
	"ckb/internal/logging"
	"ckb/internal/store"
)

// Embedder owns embed_missing/reembed_table for one daemon instance
// (§4.4), shared across all repos and entity tables.
type Embedder struct {
	store    *store.Store
	logger   *logging.Logger
	provider Provider
	config   Config
}

// New builds an Embedder over the given store and provider config.
func New(st *store.Store, logger *logging.Logger, cfg Config) (*Embedder, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &Embedder{store: st, logger: logger, provider: p, config: cfg}, nil
}

// Embed embeds ad-hoc text (e.g. a retrieval query) through the configured
// provider, outside the embed_missing/reembed_table dedup path.
func (e *Embedder) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if model == "" {
		model = e.config.Model
	}
	return e.provider.Embed(ctx, model, texts)
}

// Result is the outcome of one embed_missing/reembed_table run.
type Result struct {
	Candidates   int
	Embedded     int
	DistinctHash int
	Duration     string
}

type pendingRow struct {
	entityID    string
	contentHash string
}

// EmbedMissing finds rows in table missing a paired embedding, groups them
// by content_hash so identical texts are embedded once, batches the
// distinct texts through the provider, and writes vectors atomically per
// batch (§4.4 embed_missing). model, if empty, uses the Embedder's
// configured default (payload.model override, §4.4).
func (e *Embedder) EmbedMissing(ctx context.Context, schemaName string, table Table, model string) (*Result, error) {
	started := time.Now()
	if model == "" {
		model = e.config.Model
	}

	if err := e.checkDimension(ctx, schemaName, table); err != nil {
		return nil, err
	}

	rows, contentByHash, err := e.loadMissing(ctx, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("load missing %s rows: %w", table, err)
	}
	if len(rows) == 0 {
		return &Result{Duration: time.Since(started).String()}, nil
	}

	hashes := make([]string, 0, len(contentByHash))
	for h := range contentByHash {
		hashes = append(hashes, h)
	}

	rowsByHash := make(map[string][]string, len(contentByHash))
	for _, r := range rows {
		rowsByHash[r.contentHash] = append(rowsByHash[r.contentHash], r.entityID)
	}

	batchSize := e.config.batchSize()
	embedded := 0

	for start := 0; start < len(hashes); start += batchSize {
		end := start + batchSize
		if end > len(hashes) {
			end = len(hashes)
		}
		batchHashes := hashes[start:end]
		texts := make([]string, len(batchHashes))
		for i, h := range batchHashes {
			texts[i] = contentByHash[h]
		}

		var vectors [][]float32
		err := withBatchRetry(ctx, func() error {
			v, embedErr := e.provider.Embed(ctx, model, texts)
			if embedErr != nil {
				return embedErr
			}
			vectors = v
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(errors.ProviderTransient, fmt.Sprintf("embed batch for %s.%s", schemaName, table), err)
		}

		n, err := e.writeBatch(ctx, schemaName, table, model, batchHashes, vectors, rowsByHash)
		if err != nil {
			return nil, fmt.Errorf("write batch: %w", err)
		}
		embedded += n
	}

	if err := e.maybeRebuildIndex(ctx, schemaName, table, embedded); err != nil {
		e.logger.Warn("vector index maintenance failed", map[string]interface{}{
			"schema": schemaName, "table": table, "error": err.Error(),
		})
	}

	return &Result{
		Candidates:   len(rows),
		Embedded:     embedded,
		DistinctHash: len(hashes),
		Duration:     time.Since(started).String(),
	}, nil
}

// ReembedTable truncates table's embedding table (and optionally drops its
// vector index), leaving every row a candidate for the next EmbedMissing
// run (§4.4 reembed_table).
func (e *Embedder) ReembedTable(ctx context.Context, schemaName string, table Table, rebuildIndex bool) error {
	schema := quoteSchema(schemaName)
	embTable := embeddingTableFor(table)

	if _, err := e.store.Pool().Exec(ctx, fmt.Sprintf(`TRUNCATE %s.%s`, schema, pgx.Identifier{embTable}.Sanitize())); err != nil {
		return fmt.Errorf("truncate %s: %w", embTable, err)
	}

	if rebuildIndex {
		if err := e.dropVectorIndex(ctx, schemaName, table); err != nil {
			return fmt.Errorf("drop vector index: %w", err)
		}
	}

	_, err := e.store.Pool().Exec(ctx, fmt.Sprintf(`
INSERT INTO %s.vector_index_state (table_name, insertions_since_build, last_build_at)
VALUES ($1, 0, NULL)
ON CONFLICT (table_name) DO UPDATE SET insertions_since_build = 0, last_build_at = NULL`, schema), string(table))
	return err
}

// loadMissing selects {entity_id, content_hash, content} for entities of
// table lacking a row in the paired embedding table.
func (e *Embedder) loadMissing(ctx context.Context, schemaName string, table Table) ([]pendingRow, map[string]string, error) {
	schema := quoteSchema(schemaName)
	embTable := pgx.Identifier{embeddingTableFor(table)}.Sanitize()
	entityTable := pgx.Identifier{string(table)}.Sanitize()

	query := fmt.Sprintf(`
SELECT t.id, t.content_hash, t.content
FROM %[1]s.%[2]s t
LEFT JOIN %[1]s.%[3]s e ON e.entity_id = t.id
WHERE e.entity_id IS NULL`, schema, entityTable, embTable)

	rows, err := e.store.Pool().Query(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var out []pendingRow
	contentByHash := make(map[string]string)
	for rows.Next() {
		var id, hash, content string
		if err := rows.Scan(&id, &hash, &content); err != nil {
			return nil, nil, err
		}
		out = append(out, pendingRow{entityID: id, contentHash: hash})
		contentByHash[hash] = content
	}
	return out, contentByHash, rows.Err()
}

// writeBatch inserts vectors for every row sharing each hash in batchHashes
// inside a single transaction (§4.4 "writes embeddings atomically per
// batch"; dedup invariant: same content_hash -> same vector).
func (e *Embedder) writeBatch(ctx context.Context, schemaName string, table Table, model string, batchHashes []string, vectors [][]float32, rowsByHash map[string][]string) (int, error) {
	schema := quoteSchema(schemaName)
	embTable := pgx.Identifier{embeddingTableFor(table)}.Sanitize()

	tx, err := e.store.Pool().Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	written := 0
	for i, hash := range batchHashes {
		vec := pgvector.NewVector(vectors[i])
		for _, entityID := range rowsByHash[hash] {
			if _, err := tx.Exec(ctx, fmt.Sprintf(`
INSERT INTO %s.%s (entity_id, embedding, model_name)
VALUES ($1, $2, $3)
ON CONFLICT (entity_id) DO UPDATE SET embedding = EXCLUDED.embedding, model_name = EXCLUDED.model_name, created_at = now()`, schema, embTable),
				entityID, vec, model); err != nil {
				return 0, err
			}
			written++
		}
	}

	return written, tx.Commit(ctx)
}

// checkDimension FAILS fast with DimensionMismatch if the configured
// dimension disagrees with the embedding table's vector column (§4.4
// "Dimension mismatch").
func (e *Embedder) checkDimension(ctx context.Context, schemaName string, table Table) error {
	schema := quoteSchema(schemaName)
	embTable := pgx.Identifier{embeddingTableFor(table)}.Sanitize()

	// pgvector stores a vector(n) column's declared dimension directly in
	// atttypmod, unlike varchar's n+4 convention.
	var dim int
	err := e.store.Pool().QueryRow(ctx, fmt.Sprintf(`
SELECT atttypmod FROM pg_attribute
WHERE attrelid = '%s.%s'::regclass AND attname = 'embedding'`, schema, embTable)).Scan(&dim)
	if err != nil {
		return fmt.Errorf("read embedding column dimension: %w", err)
	}
	if dim != e.config.Dimension {
		return errors.New(errors.DimensionMismatch, fmt.Sprintf(
			"configured dimension %d does not match %s.%s column dimension %d", e.config.Dimension, table, embTable, dim))
	}
	return nil
}

// Capabilities reports the configured provider/model/dimension (§4.4
// "Provider capability reporting").
func (e *Embedder) Capabilities() Capabilities {
	return Capabilities{
		ConfiguredProvider: string(e.config.Kind),
		ConfiguredModel:    e.config.Model,
		Dimension:          e.config.Dimension,
	}
}
