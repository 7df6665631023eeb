// Package store owns all database interactions for the control schema and
// the per-repo schemas, and enforces the schema-per-repo isolation boundary
// (C1, C2).
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ckb/internal/errors"
	"ckb/internal/logging"
)

// Store wraps a pooled Postgres connection and provides schema-scoped
// access to both the control schema and repo schemas.
type Store struct {
	pool         *pgxpool.Pool
	schemaPrefix string
	logger       *logging.Logger
}

// Config configures a new Store.
type Config struct {
	DSN          string
	SchemaPrefix string
	MaxConns     int32 // 0 leaves pgxpool's own default
}

// New connects to Postgres and ensures the control schema exists.
func New(ctx context.Context, cfg Config, logger *logging.Logger) (*Store, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pgxCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	s := &Store{pool: pool, schemaPrefix: cfg.SchemaPrefix, logger: logger}

	if err := s.migrateControlSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Pool exposes the underlying pool for callers that need raw access
// (health sweeps, maintenance endpoints).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

const controlSchemaDDL = `
CREATE SCHEMA IF NOT EXISTS ckb_control;

CREATE TABLE IF NOT EXISTS ckb_control.repo_registration (
  id              UUID PRIMARY KEY,
  name            TEXT NOT NULL UNIQUE,
  schema_name     TEXT NOT NULL UNIQUE,
  root_path       TEXT NOT NULL,
  enabled         BOOLEAN NOT NULL DEFAULT true,
  auto_index      BOOLEAN NOT NULL DEFAULT true,
  auto_embed      BOOLEAN NOT NULL DEFAULT true,
  auto_watch      BOOLEAN NOT NULL DEFAULT false,
  auto_summaries  BOOLEAN NOT NULL DEFAULT false,
  auto_graph_assist BOOLEAN NOT NULL DEFAULT false,
  embedding_dim   INT NOT NULL,
  config          JSONB NOT NULL DEFAULT '{}',
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ckb_control.registry_default (
  id   BOOLEAN PRIMARY KEY DEFAULT true,
  name TEXT,
  CHECK (id)
);

CREATE TABLE IF NOT EXISTS ckb_control.job_queue (
  id            UUID PRIMARY KEY,
  repo_name     TEXT NOT NULL,
  schema_name   TEXT NOT NULL,
  job_type      TEXT NOT NULL,
  payload       JSONB NOT NULL DEFAULT '{}',
  priority      INT NOT NULL DEFAULT 5,
  status        TEXT NOT NULL DEFAULT 'PENDING',
  attempts      INT NOT NULL DEFAULT 0,
  max_attempts  INT NOT NULL DEFAULT 3,
  claimed_by    TEXT,
  claimed_at    TIMESTAMPTZ,
  started_at    TIMESTAMPTZ,
  completed_at  TIMESTAMPTZ,
  run_after     TIMESTAMPTZ,
  dedup_key     TEXT,
  error         TEXT,
  error_detail  JSONB,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS job_queue_claim_idx
  ON ckb_control.job_queue (status, run_after, priority DESC, created_at ASC);

CREATE UNIQUE INDEX IF NOT EXISTS job_queue_dedup_nonterminal_idx
  ON ckb_control.job_queue (dedup_key)
  WHERE dedup_key IS NOT NULL AND status IN ('PENDING', 'CLAIMED');

CREATE TABLE IF NOT EXISTS ckb_control.daemon_instance (
  instance_id    TEXT PRIMARY KEY,
  status         TEXT NOT NULL DEFAULT 'running',
  started_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  last_heartbeat TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ckb_control.tag (
  id   UUID PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);
`

func (s *Store) migrateControlSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, controlSchemaDDL)
	if err != nil {
		return errors.Wrap(errors.SchemaConflict, "migrate control schema", err)
	}
	return nil
}

// SchemaPrefix returns the configured schema-name prefix.
func (s *Store) SchemaPrefix() string { return s.schemaPrefix }
