package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"ckb/internal/config"
	"ckb/internal/embed"
	"ckb/internal/health"
	"ckb/internal/indexer"
	"ckb/internal/jobs"
	"ckb/internal/logging"
	"ckb/internal/query"
	"ckb/internal/repos"
	"ckb/internal/store"
	"ckb/internal/summary"
)

// stack bundles the control-plane components a CLI command needs, built the
// same way Daemon.initializeControlPlane builds them, but standalone so
// one-shot commands (search, index, job) don't have to run a full daemon.
type stack struct {
	Config     *config.Config
	Store      *store.Store
	JobStore   *jobs.Store
	Indexer    *indexer.Indexer
	Embedder   *embed.Embedder
	Summarizer *summary.Summarizer
	Retriever  *query.Retriever
	Health     *health.Monitor
}

// buildStack loads repoRoot's config and connects every control-plane
// component against cfg.Store.DSN. Callers are responsible for closing the
// returned stack's Store when done.
func buildStack(ctx context.Context, repoRoot string, logger *logging.Logger) (*stack, error) {
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.DSN == "" {
		return nil, fmt.Errorf("store.dsn not configured (set in .ckb/config.json or CKB_STORE_DSN)")
	}

	st, err := store.New(ctx, store.Config{
		DSN:          cfg.Store.DSN,
		SchemaPrefix: cfg.Store.SchemaPrefix,
		MaxConns:     cfg.Store.MaxConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}

	perType := make(map[jobs.Type]int, len(cfg.Daemon.Jobs.MaxConcurrentPerType))
	for k, v := range cfg.Daemon.Jobs.MaxConcurrentPerType {
		perType[jobs.Type(k)] = v
	}
	jobStore := jobs.NewStore(st.Pool(), jobs.ConcurrencyLimits{
		MaxConcurrentPerRepo: cfg.Daemon.Jobs.MaxConcurrentPerRepo,
		PerType:              perType,
	})

	ix := indexer.New(st, logger, indexer.DefaultConfig())

	embedder, err := embed.New(st, logger, embed.Config{
		Kind:                 embed.ProviderKind(cfg.Embedding.Kind),
		BaseURL:              cfg.Embedding.BaseURL,
		APIKey:               cfg.Embedding.APIKey,
		Model:                cfg.Embedding.Model,
		Dimension:            cfg.Store.EmbeddingDim,
		BatchSize:            cfg.Embedding.BatchSize,
		IndexRebuildFraction: cfg.Embedding.IndexRebuildFraction,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	summarizer, err := summary.New(st, logger, summary.Config{
		Kind:    summary.ProviderKind(cfg.Summary.Kind),
		BaseURL: cfg.Summary.BaseURL,
		APIKey:  cfg.Summary.APIKey,
		Model:   cfg.Summary.Model,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create summarizer: %w", err)
	}

	retriever := query.New(st, logger, embedder.Embed, cfg.Embedding.Model)
	healthMonitor := health.New(st.Pool(), jobStore, logger, health.DefaultConfig(uuid.NewString()))

	return &stack{
		Config:     cfg,
		Store:      st,
		JobStore:   jobStore,
		Indexer:    ix,
		Embedder:   embedder,
		Summarizer: summarizer,
		Retriever:  retriever,
		Health:     healthMonitor,
	}, nil
}

// mustBuildStack builds a stack or exits with a formatted error.
func mustBuildStack(ctx context.Context, repoRoot string, logger *logging.Logger) *stack {
	s, err := buildStack(ctx, repoRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing CKB: %v\n", err)
		os.Exit(1)
	}
	return s
}

// getRepoRoot returns the repository root directory.
// It uses the global repo resolution order:
// 1. CKB_REPO environment variable
// 2. Current directory matches a registered repo
// 3. Git root of the current directory, when it is not registered
// 4. Default repo from registry
// 5. Falls back to current working directory
func getRepoRoot() (string, error) {
	resolved, err := repos.ResolveActiveRepo("")
	if err != nil {
		return os.Getwd()
	}
	if resolved.Entry != nil {
		return resolved.Entry.Path, nil
	}
	return os.Getwd()
}

// mustGetRepoRoot returns the repository root or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return repoRoot
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// newLogger builds the structured logger every command shares, writing
// human-formatted lines unless CKB_LOG_FORMAT=json.
func newLogger() *logging.Logger {
	format := "human"
	if os.Getenv("CKB_LOG_FORMAT") == "json" {
		format = "json"
	}
	level := "info"
	if quiet {
		level = "error"
	} else if verbosity > 0 || os.Getenv("CKB_DEBUG") == "1" {
		level = "debug"
	}
	return logging.NewLogger(logging.Config{Format: format, Level: level})
}

// resolveRepoEntry resolves repoName (or the active/default repo when
// empty) to its control-plane registration, the schema a command needs to
// query against.
func resolveRepoEntry(ctx context.Context, st *store.Store, repoRoot, repoName string) (*store.RepoEntry, error) {
	if repoName == "" {
		repoName = repoNameFromPath(repoRoot)
	}
	entry, err := st.Get(ctx, repoName)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func repoNameFromPath(path string) string {
	resolved, err := repos.ResolveActiveRepo("")
	if err == nil && resolved.Entry != nil {
		return resolved.Entry.Name
	}
	return path
}
