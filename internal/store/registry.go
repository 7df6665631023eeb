package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ckb/internal/errors"
	"ckb/internal/hashing"
)

// RepoEntry is a control-schema Repo Registration row (§3).
type RepoEntry struct {
	ID              uuid.UUID
	Name            string
	SchemaName      string
	RootPath        string
	Enabled         bool
	AutoIndex       bool
	AutoEmbed       bool
	AutoWatch       bool
	AutoSummaries   bool
	AutoGraphAssist bool
	EmbeddingDim    int
	Config          map[string]interface{}
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateName checks a candidate repo name against the naming rule (§4.1).
func ValidateName(name string) error {
	if name == "" {
		return errors.New(errors.SchemaConflict, "repo name cannot be empty")
	}
	if !namePattern.MatchString(name) {
		return errors.New(errors.SchemaConflict, "repo name must contain only letters, numbers, underscores, and hyphens")
	}
	return nil
}

// RegisterOptions carries the body of a POST /api/registry request.
type RegisterOptions struct {
	Name            string
	RootPath        string
	Enabled         bool
	AutoIndex       bool
	AutoEmbed       bool
	AutoWatch       bool
	AutoSummaries   bool
	AutoGraphAssist bool
	EmbeddingDim    int
	Config          map[string]interface{}
}

// Register creates a Repo Registration, derives its schema name, creates
// and initializes the schema, and returns the new entry. It FAILS with
// SchemaConflict if the name is already registered.
func (s *Store) Register(ctx context.Context, opts RegisterOptions) (*RepoEntry, error) {
	if err := ValidateName(opts.Name); err != nil {
		return nil, err
	}

	schemaName := hashing.SchemaName(s.schemaPrefix, opts.Name)
	id := uuid.New()
	cfgJSON, err := json.Marshal(opts.Config)
	if err != nil {
		return nil, err
	}

	const insert = `
INSERT INTO ckb_control.repo_registration
  (id, name, schema_name, root_path, enabled, auto_index, auto_embed, auto_watch,
   auto_summaries, auto_graph_assist, embedding_dim, config)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	if _, err := s.pool.Exec(ctx, insert, id, opts.Name, schemaName, opts.RootPath,
		opts.Enabled, opts.AutoIndex, opts.AutoEmbed, opts.AutoWatch,
		opts.AutoSummaries, opts.AutoGraphAssist, opts.EmbeddingDim, cfgJSON); err != nil {
		return nil, errors.Wrap(errors.SchemaConflict, fmt.Sprintf("repo %q already registered", opts.Name), err)
	}

	if err := s.CreateRepoSchema(ctx, schemaName, opts.EmbeddingDim); err != nil {
		return nil, err
	}

	return s.Get(ctx, opts.Name)
}

func scanRepoEntry(row pgx.Row) (*RepoEntry, error) {
	var e RepoEntry
	var cfgJSON []byte
	if err := row.Scan(&e.ID, &e.Name, &e.SchemaName, &e.RootPath, &e.Enabled,
		&e.AutoIndex, &e.AutoEmbed, &e.AutoWatch, &e.AutoSummaries, &e.AutoGraphAssist,
		&e.EmbeddingDim, &cfgJSON, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if len(cfgJSON) > 0 {
		if err := json.Unmarshal(cfgJSON, &e.Config); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

const selectRepoCols = `id, name, schema_name, root_path, enabled, auto_index, auto_embed,
	auto_watch, auto_summaries, auto_graph_assist, embedding_dim, config, created_at, updated_at`

// Get returns a repo entry by name, or RepoNotFound.
func (s *Store) Get(ctx context.Context, name string) (*RepoEntry, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+selectRepoCols+" FROM ckb_control.repo_registration WHERE name = $1", name)
	entry, err := scanRepoEntry(row)
	if err != nil {
		return nil, errors.NewRepoNotFound(name)
	}
	return entry, nil
}

// List returns every registered repo.
func (s *Store) List(ctx context.Context) ([]RepoEntry, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+selectRepoCols+" FROM ckb_control.repo_registration ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RepoEntry
	for rows.Next() {
		e, err := scanRepoEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Delete unregisters a repo, optionally dropping its schema.
func (s *Store) Delete(ctx context.Context, name string, deleteSchema bool) error {
	entry, err := s.Get(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM ckb_control.repo_registration WHERE name = $1", name); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM ckb_control.registry_default WHERE name = $1", name); err != nil {
		return err
	}
	if deleteSchema {
		stmt := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pgx.Identifier{entry.SchemaName}.Sanitize())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Update applies a partial patch to a repo's flags/config.
func (s *Store) Update(ctx context.Context, name string, patch map[string]interface{}) (*RepoEntry, error) {
	if _, err := s.Get(ctx, name); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = now()"}
	args := []interface{}{}
	argN := 1
	for _, field := range []string{"enabled", "auto_index", "auto_embed", "auto_watch", "auto_summaries", "auto_graph_assist"} {
		if v, ok := patch[field]; ok {
			argN++
			sets = append(sets, fmt.Sprintf("%s = $%d", field, argN))
			args = append(args, v)
		}
	}

	query := fmt.Sprintf("UPDATE ckb_control.repo_registration SET %s WHERE name = $1", joinComma(sets))
	allArgs := append([]interface{}{name}, args...)
	if _, err := s.pool.Exec(ctx, query, allArgs...); err != nil {
		return nil, err
	}
	return s.Get(ctx, name)
}

func joinComma(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

// SetDefault sets (or, passed "", clears) the default repo.
func (s *Store) SetDefault(ctx context.Context, name string) error {
	if name != "" {
		if _, err := s.Get(ctx, name); err != nil {
			return err
		}
	}
	const upsert = `
INSERT INTO ckb_control.registry_default (id, name) VALUES (true, $1)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	_, err := s.pool.Exec(ctx, upsert, nullIfEmpty(name))
	return err
}

// GetDefault returns the default repo name, or "" if none is set.
func (s *Store) GetDefault(ctx context.Context) (string, error) {
	var name *string
	err := s.pool.QueryRow(ctx, "SELECT name FROM ckb_control.registry_default WHERE id = true").Scan(&name)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if name == nil {
		return "", nil
	}
	return *name, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
