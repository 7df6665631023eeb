// Package health implements the Health Monitor (C7 §4.6.5): a periodic task
// that maintains this daemon's heartbeat, marks peer daemons stale, and
// auto-releases jobs stuck in CLAIMED past a crash-recovery threshold.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ckb/internal/jobs"
	"ckb/internal/logging"
)

// Config controls the monitor's intervals and thresholds (§4.6.5 defaults).
type Config struct {
	InstanceID         string
	HeartbeatInterval  time.Duration
	DeadThreshold      time.Duration
	StuckJobThreshold  time.Duration
}

// DefaultConfig returns the spec's stated defaults.
func DefaultConfig(instanceID string) Config {
	return Config{
		InstanceID:        instanceID,
		HeartbeatInterval: 30 * time.Second,
		DeadThreshold:     120 * time.Second,
		StuckJobThreshold: 30 * time.Minute,
	}
}

// Monitor runs the periodic health sweep.
type Monitor struct {
	pool   *pgxpool.Pool
	jobs   *jobs.Store
	logger *logging.Logger
	config Config

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// New builds a Monitor.
func New(pool *pgxpool.Pool, jobStore *jobs.Store, logger *logging.Logger, config Config) *Monitor {
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 30 * time.Second
	}
	if config.DeadThreshold <= 0 {
		config.DeadThreshold = 120 * time.Second
	}
	if config.StuckJobThreshold <= 0 {
		config.StuckJobThreshold = 30 * time.Minute
	}

	return &Monitor{pool: pool, jobs: jobStore, logger: logger, config: config, done: make(chan struct{})}
}

// Start registers this instance and launches the sweep loop.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.registerInstance(ctx); err != nil {
		return err
	}

	m.wg.Add(1)
	go m.loop(ctx)
	return nil
}

// Stop halts the sweep loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep(ctx)
		case <-m.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) registerInstance(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
INSERT INTO ckb_control.daemon_instance (instance_id, status, started_at, last_heartbeat)
VALUES ($1, 'running', now(), now())
ON CONFLICT (instance_id) DO UPDATE SET status = 'running', started_at = now(), last_heartbeat = now()`,
		m.config.InstanceID)
	return err
}

// sweep performs one heartbeat-update + stale-marking + stuck-job-release
// pass.
func (m *Monitor) sweep(ctx context.Context) {
	if err := m.heartbeat(ctx); err != nil {
		m.logger.Warn("heartbeat update failed", map[string]interface{}{"error": err.Error()})
	}

	staleCount, err := m.markStaleDaemons(ctx)
	if err != nil {
		m.logger.Warn("stale-daemon sweep failed", map[string]interface{}{"error": err.Error()})
	} else if staleCount > 0 {
		m.logger.Info("marked daemons stale", map[string]interface{}{"count": staleCount})
	}

	released, err := m.jobs.ReleaseStuck(ctx, m.config.StuckJobThreshold)
	if err != nil {
		m.logger.Warn("stuck-job release failed", map[string]interface{}{"error": err.Error()})
	} else if released > 0 {
		m.logger.Info("released stuck jobs", map[string]interface{}{"count": released})
	}
}

func (m *Monitor) heartbeat(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
UPDATE ckb_control.daemon_instance SET last_heartbeat = now(), status = 'running'
WHERE instance_id = $1`, m.config.InstanceID)
	return err
}

func (m *Monitor) markStaleDaemons(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-m.config.DeadThreshold)
	tag, err := m.pool.Exec(ctx, `
UPDATE ckb_control.daemon_instance
SET status = 'stale'
WHERE instance_id <> $1 AND status = 'running' AND last_heartbeat < $2`,
		m.config.InstanceID, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Instance is a daemon_instance row surfaced on the admin plane.
type Instance struct {
	InstanceID    string
	Status        string
	StartedAt     time.Time
	LastHeartbeat time.Time
}

// ListInstances returns every known daemon instance, for /api/stats/daemon.
func (m *Monitor) ListInstances(ctx context.Context) ([]Instance, error) {
	rows, err := m.pool.Query(ctx, `
SELECT instance_id, status, started_at, last_heartbeat FROM ckb_control.daemon_instance
ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Instance
	for rows.Next() {
		var inst Instance
		if err := rows.Scan(&inst.InstanceID, &inst.Status, &inst.StartedAt, &inst.LastHeartbeat); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}
