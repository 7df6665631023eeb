// Package daemon provides the CKB daemon mode for always-on service.
package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"ckb/internal/config"
	"ckb/internal/embed"
	"ckb/internal/health"
	"ckb/internal/indexer"
	"ckb/internal/jobs"
	"ckb/internal/logging"
	"ckb/internal/paths"
	"ckb/internal/query"
	"ckb/internal/store"
	"ckb/internal/summary"
	"ckb/internal/tags"
	"ckb/internal/version"
	"ckb/internal/watcher"
)

// Daemon represents the CKB daemon process
type Daemon struct {
	config     *config.DaemonConfig
	fullConfig *config.Config
	server     *http.Server
	pid        *PIDFile
	logger     *log.Logger

	// Components
	watcher       *watcher.Watcher
	structuredLog *logging.Logger

	// Control plane (§4.6): registry/job-queue store, worker pool, and
	// health monitor driving C3-C6 against Postgres.
	registry      *store.Store
	jobStore      *jobs.Store
	jobRunner     *jobs.Runner
	healthMonitor *health.Monitor
	indexer       *indexer.Indexer
	embedder      *embed.Embedder
	summarizer    *summary.Summarizer
	retriever     *query.Retriever
	tagSyncer     *tags.Syncer

	// Shutdown coordination
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// State
	startedAt time.Time
	mu        sync.RWMutex
}

// DaemonState represents the current daemon state
type DaemonState struct {
	PID          int           `json:"pid"`
	StartedAt    time.Time     `json:"startedAt"`
	Port         int           `json:"port"`
	Bind         string        `json:"bind"`
	Version      string        `json:"version"`
	Uptime       time.Duration `json:"uptime"`
	JobsRunning  int           `json:"jobsRunning"`
	JobsQueued   int           `json:"jobsQueued"`
	ReposWatched int           `json:"reposWatched"`
}

// New creates a new daemon instance
func New(fullCfg *config.Config) (*Daemon, error) {
	cfg := &fullCfg.Daemon

	// Setup logging
	logPath := cfg.LogFile
	if logPath == "" {
		var err error
		logPath, err = paths.GetDaemonLogPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get log path: %w", err)
		}
	}

	// Ensure daemon directory exists
	if _, err := paths.EnsureDaemonDir(); err != nil {
		return nil, fmt.Errorf("failed to create daemon directory: %w", err)
	}

	// Open log file
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := log.New(logFile, "[ckb-daemon] ", log.LstdFlags|log.Lmicroseconds)

	// Create structured logger for components
	structuredLogger := logging.NewLogger(logging.Config{
		Level:  logging.InfoLevel,
		Format: logging.JSONFormat,
		Output: logFile,
	})

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		config:        cfg,
		fullConfig:    fullCfg,
		logger:        logger,
		structuredLog: structuredLogger,
		ctx:           ctx,
		cancel:        cancel,
	}

	// Initialize watcher
	watcherCfg := watcher.DefaultConfig()
	watcherCfg.Enabled = cfg.Watch.Enabled
	watcherCfg.DebounceMs = cfg.Watch.DebounceMs
	if len(cfg.Watch.IgnorePatterns) > 0 {
		watcherCfg.IgnorePatterns = cfg.Watch.IgnorePatterns
	}
	d.watcher = watcher.New(watcherCfg, structuredLogger, d.onWatcherChange)

	// Initialize control plane (§4.6): repo registry, job queue, worker
	// pool, indexer/embedder/retriever, health monitor. Best-effort: a repo
	// registered before Postgres is reachable should not prevent the daemon
	// itself from starting (file watching and the HTTP server are DB-independent).
	if err := d.initializeControlPlane(fullCfg, structuredLogger); err != nil {
		logger.Printf("control plane unavailable: %v", err)
	}

	return d, nil
}

// initializeControlPlane wires the Store, job queue, worker pool, and
// health monitor (§4.6) plus the Indexer/Embedder/Retriever that drive
// C3-C6, then registers every job Handler.
func (d *Daemon) initializeControlPlane(cfg *config.Config, logger *logging.Logger) error {
	if cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn not configured")
	}

	st, err := store.New(d.ctx, store.Config{
		DSN:          cfg.Store.DSN,
		SchemaPrefix: cfg.Store.SchemaPrefix,
		MaxConns:     cfg.Store.MaxConns,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect to store: %w", err)
	}
	d.registry = st

	perType := make(map[jobs.Type]int, len(cfg.Daemon.Jobs.MaxConcurrentPerType))
	for k, v := range cfg.Daemon.Jobs.MaxConcurrentPerType {
		perType[jobs.Type(k)] = v
	}
	d.jobStore = jobs.NewStore(st.Pool(), jobs.ConcurrencyLimits{
		MaxConcurrentPerRepo: cfg.Daemon.Jobs.MaxConcurrentPerRepo,
		PerType:              perType,
	})

	runnerCfg := jobs.RunnerConfig{
		Mode:           jobs.Mode(cfg.Daemon.Jobs.Mode),
		MaxWorkers:     cfg.Daemon.Jobs.MaxWorkers,
		PollInterval:   time.Duration(cfg.Daemon.Jobs.PollIntervalMs) * time.Millisecond,
		JobTimeout:     time.Duration(cfg.Daemon.Jobs.JobTimeoutSec) * time.Second,
		WorkerIDPrefix: "worker",
	}
	d.jobRunner = jobs.NewRunner(d.jobStore, st, logger, runnerCfg)

	d.indexer = indexer.New(st, logger, indexer.DefaultConfig())

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
		return fmt.Errorf("create embedder: %w", err)
	}
	d.embedder = embedder
	d.retriever = query.New(st, logger, embedder.Embed, cfg.Embedding.Model)

	summarizer, err := summary.New(st, logger, summary.Config{
		Kind:    summary.ProviderKind(cfg.Summary.Kind),
		BaseURL: cfg.Summary.BaseURL,
		APIKey:  cfg.Summary.APIKey,
		Model:   cfg.Summary.Model,
	})
	if err != nil {
		return fmt.Errorf("create summarizer: %w", err)
	}
	d.summarizer = summarizer
	d.tagSyncer = tags.New(st, logger)

	RegisterHandlers(d.jobRunner, st, d.indexer, d.embedder, d.summarizer, logger, cfg.Embedding.Model)

	d.healthMonitor = health.New(st.Pool(), d.jobStore, logger, health.DefaultConfig(uuid.NewString()))

	return nil
}

// Store exposes the daemon's control-plane registry/job-queue connection,
// for the admin HTTP plane and the MCP server to share the same pool.
func (d *Daemon) Store() *store.Store { return d.registry }

// JobStore exposes the job queue (§4.6.1).
func (d *Daemon) JobStore() *jobs.Store { return d.jobStore }

// Retriever exposes the hybrid-search engine (§4.5).
func (d *Daemon) Retriever() *query.Retriever { return d.retriever }

// Embedder exposes the embedding/vector-index maintenance component (§4.4).
func (d *Daemon) Embedder() *embed.Embedder { return d.embedder }

// TagSyncer exposes the tag rule engine (§4.8).
func (d *Daemon) TagSyncer() *tags.Syncer { return d.tagSyncer }

// HealthMonitor exposes the heartbeat/stuck-job monitor (§4.6.2).
func (d *Daemon) HealthMonitor() *health.Monitor { return d.healthMonitor }

// enqueueReindexMany enqueues a REINDEX_MANY job for repoName's changed
// paths, deduplicated per debounce window (§4.6.4).
func (d *Daemon) enqueueReindexMany(ctx context.Context, repoName, schemaName string, events []watcher.Event) {
	if d.jobStore == nil {
		return
	}
	files := make([]jobs.ReindexFilePayload, 0, len(events))
	for _, e := range events {
		op := jobs.OpUpsert
		if e.Type == watcher.EventDelete {
			op = jobs.OpDelete
		}
		files = append(files, jobs.ReindexFilePayload{Path: e.Path, Op: op})
	}
	payload := jobs.ReindexManyPayload{Files: files}
	if _, err := d.jobStore.Enqueue(ctx, repoName, schemaName, jobs.ReindexMany, payload, jobs.EnqueueOptions{}); err != nil {
		d.logger.Printf("failed to enqueue reindex_many for %s: %v", repoName, err)
	}
}

// onWatcherChange handles file system change events by enqueueing a
// REINDEX_MANY job for the owning repo (§4.6.4).
func (d *Daemon) onWatcherChange(repoPath string, events []watcher.Event) {
	d.logger.Printf("File changes detected in %s (%d events)", repoPath, len(events))

	if d.registry == nil {
		return
	}
	repo, err := d.registry.Get(d.ctx, repoPath)
	if err != nil {
		d.logger.Printf("repo %s not registered, dropping %d events", repoPath, len(events))
		return
	}
	d.enqueueReindexMany(d.ctx, repo.Name, repo.SchemaName, events)
}

// Start starts the daemon
func (d *Daemon) Start() error {
	d.logger.Printf("Starting CKB daemon v%s", version.Version)

	// Create and acquire PID file
	pidPath, err := paths.GetDaemonPIDPath()
	if err != nil {
		return fmt.Errorf("failed to get PID path: %w", err)
	}

	d.pid = NewPIDFile(pidPath)
	if err := d.pid.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire PID file: %w", err)
	}

	d.startedAt = time.Now()

	// Start watcher
	if err := d.watcher.Start(); err != nil {
		d.logger.Printf("Failed to start watcher: %v", err)
	} else {
		d.logger.Println("File watcher started")
	}

	// Start control plane worker pool and health monitor, if wired
	if d.jobRunner != nil {
		d.jobRunner.Start(d.ctx)
		d.logger.Println("Job runner started")
	}
	if d.healthMonitor != nil {
		if err := d.healthMonitor.Start(d.ctx); err != nil {
			d.logger.Printf("Failed to start health monitor: %v", err)
		} else {
			d.logger.Println("Health monitor started")
		}
	}

	// Setup HTTP server
	d.server = d.setupServer()

	// Start HTTP server in goroutine
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		addr := fmt.Sprintf("%s:%d", d.config.Bind, d.config.Port)
		d.logger.Printf("HTTP server listening on %s", addr)

		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.logger.Printf("HTTP server error: %v", err)
		}
	}()

	d.logger.Printf("Daemon started successfully (PID: %d)", os.Getpid())
	return nil
}

// Stop gracefully stops the daemon
func (d *Daemon) Stop() error {
	d.logger.Println("Stopping daemon...")

	// Signal shutdown
	d.cancel()

	shutdownTimeout := 30 * time.Second

	// Stop watcher
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.logger.Printf("Watcher shutdown error: %v", err)
		}
	}

	// Stop control plane: worker pool, health monitor, store pool
	if d.jobRunner != nil {
		if err := d.jobRunner.Stop(shutdownTimeout); err != nil {
			d.logger.Printf("Job runner shutdown error: %v", err)
		}
	}
	if d.healthMonitor != nil {
		d.healthMonitor.Stop()
	}
	if d.registry != nil {
		d.registry.Close()
	}

	// Shutdown HTTP server with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			d.logger.Printf("HTTP server shutdown error: %v", err)
		}
	}

	// Wait for goroutines to finish
	d.wg.Wait()

	// Release PID file
	if d.pid != nil {
		if err := d.pid.Release(); err != nil {
			d.logger.Printf("Failed to release PID file: %v", err)
		}
	}

	d.logger.Println("Daemon stopped")
	return nil
}

// Wait blocks until the daemon receives a shutdown signal
func (d *Daemon) Wait() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		d.logger.Printf("Received signal: %v", sig)
	case <-d.ctx.Done():
		d.logger.Println("Context cancelled")
	}
}

// State returns the current daemon state
func (d *Daemon) State() *DaemonState {
	d.mu.RLock()
	defer d.mu.RUnlock()

	state := &DaemonState{
		PID:       os.Getpid(),
		StartedAt: d.startedAt,
		Port:      d.config.Port,
		Bind:      d.config.Bind,
		Version:   version.Version,
		Uptime:    time.Since(d.startedAt),
	}

	// Add watcher stats
	if d.watcher != nil {
		state.ReposWatched = len(d.watcher.WatchedRepos())
	}

	return state
}

// IsRunning checks if the daemon is currently running
func IsRunning() (bool, int, error) {
	pidPath, err := paths.GetDaemonPIDPath()
	if err != nil {
		return false, 0, err
	}

	pid := &PIDFile{path: pidPath}
	return pid.IsRunning()
}

// StopRemote sends a stop signal to a running daemon
func StopRemote() error {
	pidPath, err := paths.GetDaemonPIDPath()
	if err != nil {
		return err
	}

	pid := &PIDFile{path: pidPath}
	running, processID, err := pid.IsRunning()
	if err != nil {
		return err
	}

	if !running {
		return fmt.Errorf("daemon is not running")
	}

	// Send SIGTERM to the daemon process
	process, err := os.FindProcess(processID)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send signal: %w", err)
	}

	// Wait for process to exit (with timeout)
	timeout := time.After(30 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return fmt.Errorf("timeout waiting for daemon to stop")
		case <-ticker.C:
			running, _, _ := pid.IsRunning()
			if !running {
				return nil
			}
		}
	}
}
