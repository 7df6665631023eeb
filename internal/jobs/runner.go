package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"ckb/internal/logging"
	"ckb/internal/store"
)

// Handler executes a specific type of job.
type Handler func(ctx context.Context, job *Job, progress func(int)) (interface{}, error)

// Mode selects a worker-pool topology (§4.6.2).
type Mode string

const (
	ModeSingle  Mode = "single"
	ModePerRepo Mode = "per_repo"
	ModePool    Mode = "pool"
)

// RunnerConfig configures the Runner.
type RunnerConfig struct {
	Mode           Mode
	MaxWorkers     int
	PollInterval   time.Duration
	JobTimeout     time.Duration
	WorkerIDPrefix string
}

// DefaultRunnerConfig mirrors the spec's stated defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Mode:           ModePool,
		MaxWorkers:     4,
		PollInterval:   500 * time.Millisecond,
		JobTimeout:     3600 * time.Second,
		WorkerIDPrefix: "worker",
	}
}

// Runner is the Worker Pool (C7 §4.6.2): it repeatedly claims jobs from the
// Store and dispatches them to registered Handlers, honoring one of three
// topologies (single / per_repo / pool).
type Runner struct {
	store    *Store
	registry *store.Store // repo registration lookups, for follower gating (§4.6.3)
	logger   *logging.Logger
	config   RunnerConfig
	handlers map[Type]Handler

	mu      sync.RWMutex
	cancels map[uuid.UUID]context.CancelFunc
	running map[string]bool // per-repo claim loops already started (per_repo mode)

	done chan struct{}
	wg   sync.WaitGroup

	processedCount int64
	failedCount    int64
}

// NewRunner builds a job Runner over store, using the given config. registry
// resolves a completed job's repo flags for dependency-graph follower
// gating (§4.6.3); pass nil to disable follower enqueueing (e.g. in tests).
func NewRunner(store *Store, registry *store.Store, logger *logging.Logger, config RunnerConfig) *Runner {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 4
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 3600 * time.Second
	}
	if config.WorkerIDPrefix == "" {
		config.WorkerIDPrefix = "worker"
	}

	return &Runner{
		store:    store,
		registry: registry,
		logger:   logger,
		config:   config,
		handlers: make(map[Type]Handler),
		cancels:  make(map[uuid.UUID]context.CancelFunc),
		running:  make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// RegisterHandler registers the executor for a job type.
func (r *Runner) RegisterHandler(jobType Type, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = handler
	r.logger.Debug("registered job handler", map[string]interface{}{"type": jobType})
}

// Start launches the claim loop(s) according to the configured mode.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("starting job runner", map[string]interface{}{
		"mode":       r.config.Mode,
		"maxWorkers": r.config.MaxWorkers,
	})

	switch r.config.Mode {
	case ModeSingle:
		r.wg.Add(1)
		go r.claimLoop(ctx, r.config.WorkerIDPrefix+"-0")
	case ModePerRepo:
		// Starts maxWorkers claim loops up front, the same as pool; no loop
		// is bound to a single repo. The claim predicate enforces
		// max_concurrent_per_repo.
		for i := 0; i < r.config.MaxWorkers; i++ {
			r.wg.Add(1)
			go r.claimLoop(ctx, fmt.Sprintf("%s-%d", r.config.WorkerIDPrefix, i))
		}
	case ModePool:
		fallthrough
	default:
		for i := 0; i < r.config.MaxWorkers; i++ {
			r.wg.Add(1)
			go r.claimLoop(ctx, fmt.Sprintf("%s-%d", r.config.WorkerIDPrefix, i))
		}
	}
}

// Stop signals all claim loops to exit and waits up to timeout.
func (r *Runner) Stop(timeout time.Duration) error {
	r.logger.Info("stopping job runner", nil)
	close(r.done)

	r.mu.Lock()
	for id, cancel := range r.cancels {
		r.logger.Debug("cancelling running job", map[string]interface{}{"jobId": id})
		cancel()
	}
	r.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		r.logger.Info("job runner stopped cleanly", nil)
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("job runner shutdown timed out after %v", timeout)
	}
}

// claimLoop repeatedly claims and executes jobs until Stop is called.
func (r *Runner) claimLoop(ctx context.Context, workerID string) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := r.store.Claim(ctx, workerID)
			if err != nil {
				r.logger.Warn("claim failed", map[string]interface{}{"worker": workerID, "error": err.Error()})
				continue
			}
			if job == nil {
				continue
			}
			r.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single claimed job with its own timeout-bound
// cancellable context (§4.6.2 cooperative cancellation).
func (r *Runner) processJob(parent context.Context, job *Job, workerID string) {
	r.mu.RLock()
	handler, ok := r.handlers[job.JobType]
	r.mu.RUnlock()

	if !ok {
		r.logger.Error("no handler for job type", map[string]interface{}{"jobId": job.ID, "type": job.JobType})
		_ = r.store.Fail(parent, job.ID, fmt.Errorf("no handler registered for job type %s", job.JobType))
		return
	}

	ctx, cancel := context.WithTimeout(parent, r.config.JobTimeout)
	r.mu.Lock()
	r.cancels[job.ID] = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.cancels, job.ID)
		r.mu.Unlock()
		cancel()
	}()

	r.logger.Info("processing job", map[string]interface{}{"jobId": job.ID, "type": job.JobType, "worker": workerID})

	start := time.Now()
	progress := func(pct int) {} // progress reports and the handler's result are discarded
	_, err := handler(ctx, job, progress)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() == context.Canceled {
			r.logger.Info("job cancelled", map[string]interface{}{"jobId": job.ID, "duration": duration.String()})
			return
		}
		r.mu.Lock()
		r.failedCount++
		r.mu.Unlock()
		r.logger.Error("job failed", map[string]interface{}{"jobId": job.ID, "error": err.Error(), "duration": duration.String()})
		if failErr := r.store.Fail(context.Background(), job.ID, err); failErr != nil {
			r.logger.Error("failed to record job failure", map[string]interface{}{"jobId": job.ID, "error": failErr.Error()})
		}
		return
	}

	r.mu.Lock()
	r.processedCount++
	r.mu.Unlock()
	r.logger.Info("job completed", map[string]interface{}{"jobId": job.ID, "duration": duration.String()})
	if err := r.store.Complete(context.Background(), job.ID); err != nil {
		r.logger.Error("failed to record job completion", map[string]interface{}{"jobId": job.ID, "error": err.Error()})
		return
	}
	r.enqueueFollowers(context.Background(), job)
}

// enqueueFollowers looks up job.RepoName's current flags and enqueues
// whichever of job.JobType's dependency-graph followers they allow
// (§4.6.3). Best-effort: a lookup or enqueue failure is logged, not
// propagated, since the predecessor job itself already succeeded.
func (r *Runner) enqueueFollowers(ctx context.Context, job *Job) {
	if r.registry == nil {
		return
	}
	repo, err := r.registry.Get(ctx, job.RepoName)
	if err != nil {
		r.logger.Warn("follower gating: repo lookup failed", map[string]interface{}{
			"repo": job.RepoName, "error": err.Error(),
		})
		return
	}
	flags := RepoFlags{AutoEmbed: repo.AutoEmbed, AutoSummaries: repo.AutoSummaries}
	enqueued, err := EnqueueFollowers(ctx, r.store, job.RepoName, job.SchemaName, job.JobType, flags)
	if err != nil {
		r.logger.Warn("follower enqueue failed", map[string]interface{}{
			"repo": job.RepoName, "jobType": job.JobType, "error": err.Error(),
		})
		return
	}
	if len(enqueued) > 0 {
		r.logger.Info("enqueued follower jobs", map[string]interface{}{
			"repo": job.RepoName, "predecessor": job.JobType, "followers": enqueued,
		})
	}
}

// Cancel cancels a job, signalling any running handler's context.
func (r *Runner) Cancel(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	if cancel, ok := r.cancels[id]; ok {
		cancel()
	}
	r.mu.Unlock()
	return r.store.Cancel(ctx, id)
}

// Stats reports runner-level counters for the admin plane.
func (r *Runner) Stats() map[string]interface{} {
	r.mu.RLock()
	running := len(r.cancels)
	processed := r.processedCount
	failed := r.failedCount
	r.mu.RUnlock()

	return map[string]interface{}{
		"runningJobs":    running,
		"processedTotal": processed,
		"failedTotal":    failed,
		"mode":           r.config.Mode,
		"maxWorkers":     r.config.MaxWorkers,
	}
}
