package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ckb/internal/errors"
	"ckb/internal/logging"
	"ckb/internal/store"
)

// Summarizer owns SUMMARIZE_MISSING/SUMMARIZE_FILES/SUMMARIZE_SYMBOLS/
// REGENERATE_SUMMARY for one daemon instance, shared across all repos.
type Summarizer struct {
	store    *store.Store
	logger   *logging.Logger
	provider Provider
	config   Config
}

// New builds a Summarizer over the given store and provider config.
func New(st *store.Store, logger *logging.Logger, cfg Config) (*Summarizer, error) {
	p, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &Summarizer{store: st, logger: logger, provider: p, config: cfg}, nil
}

type pendingEntity struct {
	id      uuid.UUID
	content string
}

// SummarizeMissing finds entityType rows lacking a paired summary row,
// synthesizes one summary per row through the provider, and writes them
// (§4.7 SUMMARIZE_FILES/SUMMARIZE_SYMBOLS). model, if empty, uses the
// Summarizer's configured default.
func (s *Summarizer) SummarizeMissing(ctx context.Context, schemaName string, entityType EntityType, model string) (*Result, error) {
	started := time.Now()
	if model == "" {
		model = s.config.Model
	}

	rows, err := s.loadMissing(ctx, schemaName, entityType)
	if err != nil {
		return nil, fmt.Errorf("load missing %s summaries: %w", entityType, err)
	}
	if len(rows) == 0 {
		return &Result{Duration: time.Since(started).String()}, nil
	}

	summarized := 0
	for _, row := range rows {
		prompt := buildPrompt(entityType, row.content, s.config.maxContentChars())
		text, err := s.provider.Summarize(ctx, model, prompt)
		if err != nil {
			return nil, errors.Wrap(errors.ProviderTransient, fmt.Sprintf("summarize %s %s", entityType, row.id), err)
		}
		if err := s.writeSummary(ctx, schemaName, entityType, row.id, text, model); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
		summarized++
	}

	return &Result{Candidates: len(rows), Summarized: summarized, Duration: time.Since(started).String()}, nil
}

// RegenerateSummary force-regenerates one entity's summary regardless of
// whether it already has one (§4.7 REGENERATE_SUMMARY, not idempotent on
// retry since each run may produce different text).
func (s *Summarizer) RegenerateSummary(ctx context.Context, schemaName string, entityType EntityType, entityID uuid.UUID, model string) error {
	if model == "" {
		model = s.config.Model
	}

	content, err := s.loadContent(ctx, schemaName, entityType, entityID)
	if err != nil {
		return fmt.Errorf("load %s content: %w", entityType, err)
	}

	prompt := buildPrompt(entityType, content, s.config.maxContentChars())
	text, err := s.provider.Summarize(ctx, model, prompt)
	if err != nil {
		return errors.Wrap(errors.ProviderTransient, fmt.Sprintf("regenerate summary for %s %s", entityType, entityID), err)
	}
	return s.writeSummary(ctx, schemaName, entityType, entityID, text, model)
}

func buildPrompt(entityType EntityType, content string, maxChars int) string {
	if len(content) > maxChars {
		content = content[:maxChars]
	}
	switch entityType {
	case EntitySymbol:
		return fmt.Sprintf("Summarize in one or two sentences what this code symbol does:\n\n%s", content)
	default:
		return fmt.Sprintf("Summarize in one or two sentences the purpose of this file:\n\n%s", content)
	}
}

func (s *Summarizer) loadMissing(ctx context.Context, schemaName string, entityType EntityType) ([]pendingEntity, error) {
	schema := quoteSchema(schemaName)
	entityTable, contentExpr := tableAndContent(entityType)

	query := fmt.Sprintf(`
SELECT t.id, %[3]s
FROM %[1]s.%[2]s t
LEFT JOIN %[1]s.summary sm ON sm.entity_id = t.id AND sm.entity_type = '%[4]s'
WHERE sm.id IS NULL`, schema, entityTable, contentExpr, entityType)

	rows, err := s.store.Pool().Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pendingEntity
	for rows.Next() {
		var id uuid.UUID
		var content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, err
		}
		out = append(out, pendingEntity{id: id, content: content})
	}
	return out, rows.Err()
}

func (s *Summarizer) loadContent(ctx context.Context, schemaName string, entityType EntityType, entityID uuid.UUID) (string, error) {
	schema := quoteSchema(schemaName)
	entityTable, contentExpr := tableAndContent(entityType)

	var content string
	err := s.store.Pool().QueryRow(ctx, fmt.Sprintf(`SELECT %[3]s FROM %[1]s.%[2]s t WHERE t.id = $1`, schema, entityTable, contentExpr), entityID).Scan(&content)
	return content, err
}

// tableAndContent returns the source table and a content expression: files
// summarize from their path only (chunk bodies are not read), symbols from
// their own signature, or their simple name when the signature is null (no
// raw body column on symbol, §3 schema).
func tableAndContent(entityType EntityType) (table, contentExpr string) {
	switch entityType {
	case EntitySymbol:
		return "symbol", "coalesce(t.signature, t.simple_name)"
	default:
		return "file", "t.path"
	}
}

func (s *Summarizer) writeSummary(ctx context.Context, schemaName string, entityType EntityType, entityID uuid.UUID, content, model string) error {
	schema := quoteSchema(schemaName)
	_, err := s.store.Pool().Exec(ctx, fmt.Sprintf(`
INSERT INTO %s.summary (id, entity_type, entity_id, content, model_name)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`, schema), uuid.New(), string(entityType), entityID, content, model)
	return err
}

func quoteSchema(schemaName string) string {
	return pgx.Identifier{schemaName}.Sanitize()
}
