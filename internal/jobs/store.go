package jobs

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ckb/internal/errors"
)

const (
	backoffBase       = 30 * time.Second
	backoffMultiplier = 2.0
)

// ConcurrencyLimits configures the claim predicate's per-repo and per-type
// caps (§4.6.2).
type ConcurrencyLimits struct {
	MaxConcurrentPerRepo int
	PerType              map[Type]int
}

// DefaultConcurrencyLimits mirrors the spec's stated defaults.
func DefaultConcurrencyLimits() ConcurrencyLimits {
	return ConcurrencyLimits{
		MaxConcurrentPerRepo: 2,
		PerType: map[Type]int{
			FullIndex:    2,
			EmbedMissing: 3,
		},
	}
}

// Store is the job_queue data-access layer against ckb_control.job_queue.
type Store struct {
	pool   *pgxpool.Pool
	limits ConcurrencyLimits
}

// NewStore builds a jobs.Store over an existing pool.
func NewStore(pool *pgxpool.Pool, limits ConcurrencyLimits) *Store {
	return &Store{pool: pool, limits: limits}
}

const jobCols = `id, repo_name, schema_name, job_type, payload, priority, status, attempts,
	max_attempts, claimed_by, claimed_at, started_at, completed_at, run_after, dedup_key,
	error, error_detail, created_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	if err := row.Scan(&j.ID, &j.RepoName, &j.SchemaName, &j.JobType, &j.Payload, &j.Priority,
		&j.Status, &j.Attempts, &j.MaxAttempts, &j.ClaimedBy, &j.ClaimedAt, &j.StartedAt,
		&j.CompletedAt, &j.RunAfter, &j.DedupKey, &j.Error, &j.ErrorDetail, &j.CreatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

// EnqueueOptions carries the optional fields of an enqueue call.
type EnqueueOptions struct {
	Priority int
	DedupKey string
	RunAfter *time.Time
}

// Enqueue inserts a job, or — if DedupKey is set and a non-terminal job with
// that key already exists — returns the existing job's id unchanged (§4.6.1,
// §3 invariant on dedup_key).
func (s *Store) Enqueue(ctx context.Context, repoName, schemaName string, jobType Type, payload interface{}, opts EnqueueOptions) (uuid.UUID, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, err
	}

	priority := opts.Priority
	if priority == 0 {
		priority = TypeRegistry[jobType].DefaultPriority
	}

	if opts.DedupKey != "" {
		var existing uuid.UUID
		err := s.pool.QueryRow(ctx, `
SELECT id FROM ckb_control.job_queue
WHERE dedup_key = $1 AND status IN ('PENDING', 'CLAIMED')
LIMIT 1`, opts.DedupKey).Scan(&existing)
		if err == nil {
			return existing, nil
		}
		if err != pgx.ErrNoRows {
			return uuid.Nil, err
		}
	}

	id := uuid.New()
	const insert = `
INSERT INTO ckb_control.job_queue
  (id, repo_name, schema_name, job_type, payload, priority, status, max_attempts, run_after, dedup_key)
VALUES ($1,$2,$3,$4,$5,$6,'PENDING',$7,$8,$9)`

	dedup := nullIfEmptyStr(opts.DedupKey)
	if _, err := s.pool.Exec(ctx, insert, id, repoName, schemaName, jobType, payloadJSON,
		priority, 3, opts.RunAfter, dedup); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Claim atomically claims one eligible PENDING job honoring dedup and the
// configured per-repo/per-type concurrency limits, following the
// SELECT ... FOR UPDATE SKIP LOCKED / UPDATE protocol from §4.6.1. Returns
// nil, nil when no job is currently eligible.
func (s *Store) Claim(ctx context.Context, workerID string) (*Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	perRepoLimit := s.limits.MaxConcurrentPerRepo
	if perRepoLimit == 0 {
		perRepoLimit = 2
	}

	const selectCandidate = `
SELECT ` + jobCols + `
FROM ckb_control.job_queue AS jq
WHERE status = 'PENDING'
  AND (run_after IS NULL OR run_after <= now())
  AND (dedup_key IS NULL OR NOT EXISTS (
       SELECT 1 FROM ckb_control.job_queue j2
       WHERE j2.dedup_key = jq.dedup_key
         AND j2.status IN ('CLAIMED','DONE')
         AND j2.id <> jq.id))
  AND (SELECT COUNT(*) FROM ckb_control.job_queue r
       WHERE r.repo_name = jq.repo_name AND r.status = 'CLAIMED') < $1
ORDER BY priority DESC, created_at ASC
FOR UPDATE SKIP LOCKED
LIMIT 1`

	row := tx.QueryRow(ctx, selectCandidate, perRepoLimit)
	job, err := scanJob(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if limit, ok := s.limits.PerType[job.JobType]; ok {
		var inFlight int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM ckb_control.job_queue
			WHERE job_type = $1 AND status = 'CLAIMED'`, job.JobType).Scan(&inFlight); err != nil {
			return nil, err
		}
		if inFlight >= limit {
			return nil, nil
		}
	}

	const update = `
UPDATE ckb_control.job_queue SET
  status = 'CLAIMED', claimed_by = $2, claimed_at = now(),
  started_at = now(), attempts = attempts + 1
WHERE id = $1`
	if _, err := tx.Exec(ctx, update, job.ID, workerID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	job.Status = Claimed
	job.Attempts++
	return job, nil
}

// Complete marks a job DONE.
func (s *Store) Complete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
UPDATE ckb_control.job_queue SET status = 'DONE', completed_at = now(), error = NULL
WHERE id = $1`, id)
	return err
}

// Fail records a job error and either requeues it with exponential backoff
// (attempts < max_attempts and the error is retryable) or marks it terminally
// FAILED (§4.6.1). A *errors.CkbError is retryable only when its Retryable()
// says so; any other error is treated as retryable.
func (s *Store) Fail(ctx context.Context, id uuid.UUID, cause error) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var ckbErr *errors.CkbError
	retryable := !stderrors.As(cause, &ckbErr) || ckbErr.Retryable()
	if retryable && job.Attempts < job.MaxAttempts {
		backoff := time.Duration(float64(backoffBase) * pow(backoffMultiplier, float64(job.Attempts)))
		runAfter := time.Now().UTC().Add(backoff)
		_, err := s.pool.Exec(ctx, `
UPDATE ckb_control.job_queue SET status = 'PENDING', run_after = $2, error = $3
WHERE id = $1`, id, runAfter, cause.Error())
		return err
	}

	_, err = s.pool.Exec(ctx, `
UPDATE ckb_control.job_queue SET status = 'FAILED', completed_at = now(), error = $2
WHERE id = $1`, id, cause.Error())
	return err
}

// Cancel cancels a job still in PENDING or CLAIMED.
func (s *Store) Cancel(ctx context.Context, id uuid.UUID) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !job.CanCancel() {
		return errors.New(errors.Cancelled, fmt.Sprintf("job %s is already terminal", id))
	}
	_, err = s.pool.Exec(ctx, `
UPDATE ckb_control.job_queue SET status = 'CANCELLED', completed_at = now()
WHERE id = $1`, id)
	return err
}

// Get fetches a job by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+jobCols+" FROM ckb_control.job_queue WHERE id = $1", id)
	job, err := scanJob(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.RepoNotFound, fmt.Sprintf("job %s not found", id))
	}
	return job, err
}

// List returns jobs matching the given filters, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT " + jobCols + " FROM ckb_control.job_queue WHERE 1=1"
	args := []interface{}{}
	argN := 0

	if opts.RepoName != "" {
		argN++
		query += fmt.Sprintf(" AND repo_name = $%d", argN)
		args = append(args, opts.RepoName)
	}
	if len(opts.Status) > 0 {
		statuses := make([]string, len(opts.Status))
		for i, st := range opts.Status {
			statuses[i] = string(st)
		}
		argN++
		query += fmt.Sprintf(" AND status = ANY($%d)", argN)
		args = append(args, statuses)
	}

	query += " ORDER BY created_at DESC"
	argN++
	query += fmt.Sprintf(" LIMIT $%d", argN)
	args = append(args, limit)
	argN++
	query += fmt.Sprintf(" OFFSET $%d", argN)
	args = append(args, opts.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j.ToSummary())
	}
	return &ListResponse{Jobs: out, TotalCount: len(out)}, rows.Err()
}

// ReleaseStuck returns CLAIMED jobs whose claimed_at exceeds maxAge back to
// PENDING with an incremented attempt count, per the Health Monitor's
// auto-release rule (§4.6.5). Returns the number of jobs released.
func (s *Store) ReleaseStuck(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	tag, err := s.pool.Exec(ctx, `
UPDATE ckb_control.job_queue
SET status = 'PENDING', run_after = now(), attempts = attempts + 1,
    error = 'released by health monitor: claim exceeded stale threshold'
WHERE status = 'CLAIMED' AND claimed_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func nullIfEmptyStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}
