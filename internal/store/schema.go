package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ckb/internal/errors"
)

// repoSchemaDDL is the canonical per-repo schema script: Files, Symbols,
// Chunks, Edges, Documents, embedding tables, Tags, Repo Index State, plus
// the FTS tsvector columns, declared GENERATED ALWAYS so Postgres keeps them
// current (§3, §4.5).
const repoSchemaDDLTemplate = `
CREATE SCHEMA IF NOT EXISTS %[1]s;

CREATE TABLE IF NOT EXISTS %[1]s.file (
  id         UUID PRIMARY KEY,
  path       TEXT NOT NULL UNIQUE,
  language   TEXT NOT NULL,
  sha        TEXT NOT NULL,
  size       BIGINT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[1]s.symbol (
  id          UUID PRIMARY KEY,
  file_id     UUID NOT NULL REFERENCES %[1]s.file(id) ON DELETE CASCADE,
  fqn         TEXT,
  simple_name TEXT NOT NULL,
  kind        TEXT NOT NULL,
  start_line  INT NOT NULL,
  end_line    INT NOT NULL,
  signature   TEXT,
  language    TEXT NOT NULL,
  complexity  INT
);

CREATE UNIQUE INDEX IF NOT EXISTS symbol_fqn_idx ON %[1]s.symbol (fqn) WHERE fqn IS NOT NULL;
CREATE INDEX IF NOT EXISTS symbol_simple_name_idx ON %[1]s.symbol (simple_name);
CREATE INDEX IF NOT EXISTS symbol_file_idx ON %[1]s.symbol (file_id);

CREATE TABLE IF NOT EXISTS %[1]s.chunk (
  id            UUID PRIMARY KEY,
  file_id       UUID NOT NULL REFERENCES %[1]s.file(id) ON DELETE CASCADE,
  symbol_id     UUID REFERENCES %[1]s.symbol(id) ON DELETE CASCADE,
  start_line    INT NOT NULL,
  end_line      INT NOT NULL,
  content       TEXT NOT NULL,
  content_hash  TEXT NOT NULL,
  language      TEXT NOT NULL,
  kind          TEXT NOT NULL,
  fts           TSVECTOR GENERATED ALWAYS AS (to_tsvector('simple', content)) STORED
);

CREATE INDEX IF NOT EXISTS chunk_content_hash_idx ON %[1]s.chunk (content_hash);
CREATE INDEX IF NOT EXISTS chunk_fts_idx ON %[1]s.chunk USING GIN (fts);

CREATE TABLE IF NOT EXISTS %[1]s.edge (
  id              UUID PRIMARY KEY,
  from_symbol_id  UUID REFERENCES %[1]s.symbol(id) ON DELETE CASCADE,
  to_symbol_id    UUID REFERENCES %[1]s.symbol(id) ON DELETE CASCADE,
  to_name         TEXT,
  edge_type       TEXT NOT NULL,
  evidence_file_id UUID NOT NULL REFERENCES %[1]s.file(id) ON DELETE CASCADE,
  evidence_line   INT NOT NULL
);

CREATE INDEX IF NOT EXISTS edge_from_idx ON %[1]s.edge (from_symbol_id);
CREATE INDEX IF NOT EXISTS edge_to_name_idx ON %[1]s.edge (to_name) WHERE to_name IS NOT NULL;

CREATE TABLE IF NOT EXISTS %[1]s.document (
  id       UUID PRIMARY KEY,
  path     TEXT NOT NULL UNIQUE,
  doc_type TEXT NOT NULL,
  title    TEXT,
  content  TEXT NOT NULL,
  fts      TSVECTOR GENERATED ALWAYS AS (to_tsvector('simple', content)) STORED
);

CREATE INDEX IF NOT EXISTS document_fts_idx ON %[1]s.document USING GIN (fts);

CREATE TABLE IF NOT EXISTS %[1]s.summary (
  id           UUID PRIMARY KEY,
  entity_type  TEXT NOT NULL,
  entity_id    UUID NOT NULL,
  content      TEXT NOT NULL,
  generated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  model_name   TEXT
);

CREATE TABLE IF NOT EXISTS %[1]s.chunk_embedding (
  entity_id  UUID PRIMARY KEY REFERENCES %[1]s.chunk(id) ON DELETE CASCADE,
  embedding  VECTOR(%[2]d) NOT NULL,
  model_name TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[1]s.document_embedding (
  entity_id  UUID PRIMARY KEY REFERENCES %[1]s.document(id) ON DELETE CASCADE,
  embedding  VECTOR(%[2]d) NOT NULL,
  model_name TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[1]s.summary_embedding (
  entity_id  UUID PRIMARY KEY REFERENCES %[1]s.summary(id) ON DELETE CASCADE,
  embedding  VECTOR(%[2]d) NOT NULL,
  model_name TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[1]s.entity_tag (
  repo_id     UUID NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id   UUID NOT NULL,
  tag_id      UUID NOT NULL REFERENCES ckb_control.tag(id),
  confidence  REAL,
  source      TEXT NOT NULL,
  PRIMARY KEY (repo_id, entity_type, entity_id, tag_id)
);

CREATE TABLE IF NOT EXISTS %[1]s.repo_index_state (
  repo_id          UUID PRIMARY KEY,
  last_indexed_at  TIMESTAMPTZ,
  last_scan_commit TEXT
);

CREATE TABLE IF NOT EXISTS %[1]s.vector_index_state (
  table_name            TEXT PRIMARY KEY,
  insertions_since_build INT NOT NULL DEFAULT 0,
  last_build_at         TIMESTAMPTZ
);
`

// CreateRepoSchema creates the schema for a repo if absent and runs the
// canonical DDL. It is idempotent: calling it twice for the same repo is a
// no-op on the second call. embeddingDim fixes the dimension of every
// embedding column created in this schema (§3, Open Question #3).
func (s *Store) CreateRepoSchema(ctx context.Context, schemaName string, embeddingDim int) error {
	ddl := fmt.Sprintf(repoSchemaDDLTemplate, pgx.Identifier{schemaName}.Sanitize(), embeddingDim)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return errors.Wrap(errors.SchemaConflict, fmt.Sprintf("create repo schema %s", schemaName), err)
	}
	return nil
}

// DropRepoSchema drops a repo's schema and all its contents. Called only
// when a registration is deleted with delete_schema=true.
func (s *Store) DropRepoSchema(ctx context.Context, schemaName string) error {
	stmt := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pgx.Identifier{schemaName}.Sanitize())
	_, err := s.pool.Exec(ctx, stmt)
	return err
}

// WithSchema acquires a connection from the pool, sets its search_path to
// schemaName for the duration of fn, and restores the default search_path
// on every exit path (success, error, panic-free early return) before the
// connection is released back to the pool.
func (s *Store) WithSchema(ctx context.Context, schemaName string, fn func(ctx context.Context, conn *pgx.Conn) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	raw := conn.Conn()
	setStmt := fmt.Sprintf("SET search_path TO %s, public", pgx.Identifier{schemaName}.Sanitize())
	if _, err := raw.Exec(ctx, setStmt); err != nil {
		return errors.Wrap(errors.SchemaConflict, "set search_path", err)
	}
	defer func() {
		_, _ = raw.Exec(context.Background(), "RESET search_path")
	}()

	return fn(ctx, raw)
}
