// Package jobs implements the durable job queue, claim protocol, worker
// pool, and job dependency graph that drive C3-C6 (§4.6).
package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a job (§3).
type Status string

const (
	Pending   Status = "PENDING"
	Claimed   Status = "CLAIMED"
	Done      Status = "DONE"
	Failed    Status = "FAILED"
	Cancelled Status = "CANCELLED"
)

// Type is the closed job-type taxonomy (§4.7). Names are case-sensitive.
type Type string

const (
	FullIndex         Type = "FULL_INDEX"
	ReindexFile       Type = "REINDEX_FILE"
	ReindexMany       Type = "REINDEX_MANY"
	EmbedMissing      Type = "EMBED_MISSING"
	EmbedChunk        Type = "EMBED_CHUNK"
	EmbedSummaries    Type = "EMBED_SUMMARIES"
	DocsScan          Type = "DOCS_SCAN"
	TagRulesSync      Type = "TAG_RULES_SYNC"
	SummarizeMissing  Type = "SUMMARIZE_MISSING"
	SummarizeFiles    Type = "SUMMARIZE_FILES"
	SummarizeSymbols  Type = "SUMMARIZE_SYMBOLS"
	RegenerateSummary Type = "REGENERATE_SUMMARY"
)

// TypeInfo declares the static properties of a job type (§4.7).
type TypeInfo struct {
	RunsInRepoSchema  bool
	DefaultPriority   int
	IdempotentOnRetry bool
	DedupKeyTemplate  string // Go text/template-free placeholder form, e.g. "{repo}:FULL_INDEX"
}

// TypeRegistry is the declarative table of job-type properties, so new job
// types can be added without touching worker code.
var TypeRegistry = map[Type]TypeInfo{
	FullIndex:         {RunsInRepoSchema: true, DefaultPriority: 10, IdempotentOnRetry: true, DedupKeyTemplate: "{repo}:FULL_INDEX"},
	ReindexFile:       {RunsInRepoSchema: true, DefaultPriority: 8, IdempotentOnRetry: true, DedupKeyTemplate: "{repo}:REINDEX_FILE:{path}"},
	ReindexMany:       {RunsInRepoSchema: true, DefaultPriority: 8, IdempotentOnRetry: true, DedupKeyTemplate: "{repo}:REINDEX_MANY:{batch}"},
	EmbedMissing:      {RunsInRepoSchema: true, DefaultPriority: 5, IdempotentOnRetry: true, DedupKeyTemplate: "{repo}:EMBED_MISSING:{table}"},
	EmbedChunk:        {RunsInRepoSchema: true, DefaultPriority: 5, IdempotentOnRetry: true, DedupKeyTemplate: ""},
	EmbedSummaries:    {RunsInRepoSchema: true, DefaultPriority: 3, IdempotentOnRetry: true, DedupKeyTemplate: "{repo}:EMBED_SUMMARIES"},
	DocsScan:          {RunsInRepoSchema: true, DefaultPriority: 9, IdempotentOnRetry: true, DedupKeyTemplate: "{repo}:DOCS_SCAN"},
	TagRulesSync:      {RunsInRepoSchema: true, DefaultPriority: 7, IdempotentOnRetry: true, DedupKeyTemplate: "{repo}:TAG_RULES_SYNC"},
	SummarizeMissing:  {RunsInRepoSchema: true, DefaultPriority: 4, IdempotentOnRetry: true, DedupKeyTemplate: "{repo}:SUMMARIZE_MISSING"},
	SummarizeFiles:    {RunsInRepoSchema: true, DefaultPriority: 4, IdempotentOnRetry: true, DedupKeyTemplate: "{repo}:SUMMARIZE_FILES"},
	SummarizeSymbols:  {RunsInRepoSchema: true, DefaultPriority: 4, IdempotentOnRetry: true, DedupKeyTemplate: "{repo}:SUMMARIZE_SYMBOLS"},
	RegenerateSummary: {RunsInRepoSchema: true, DefaultPriority: 2, IdempotentOnRetry: false, DedupKeyTemplate: ""},
}

// Job is a control-schema job_queue row (§3, §4.6.1).
type Job struct {
	ID          uuid.UUID
	RepoName    string
	SchemaName  string
	JobType     Type
	Payload     json.RawMessage
	Priority    int
	Status      Status
	Attempts    int
	MaxAttempts int
	ClaimedBy   string
	ClaimedAt   *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	RunAfter    *time.Time
	DedupKey    string
	Error       string
	ErrorDetail json.RawMessage
	CreatedAt   time.Time
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	return j.Status == Done || j.Status == Failed || j.Status == Cancelled
}

// CanCancel returns true if the job can still be cancelled.
func (j *Job) CanCancel() bool {
	return j.Status == Pending || j.Status == Claimed
}

// Duration returns how long the job ran (or has been running).
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	end := time.Now().UTC()
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt)
}

// Summary is a lightweight view of a job for listing.
type Summary struct {
	ID          uuid.UUID  `json:"id"`
	RepoName    string     `json:"repoName"`
	JobType     Type       `json:"jobType"`
	Status      Status     `json:"status"`
	Priority    int        `json:"priority"`
	Attempts    int        `json:"attempts"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// ToSummary creates a summary view of the job.
func (j *Job) ToSummary() Summary {
	return Summary{
		ID:          j.ID,
		RepoName:    j.RepoName,
		JobType:     j.JobType,
		Status:      j.Status,
		Priority:    j.Priority,
		Attempts:    j.Attempts,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
		Error:       j.Error,
	}
}

// ListOptions controls ListJobs filtering/pagination.
type ListOptions struct {
	RepoName string
	Status   []Status
	Limit    int
	Offset   int
}

// ListResponse is the result of listing jobs.
type ListResponse struct {
	Jobs       []Summary `json:"jobs"`
	TotalCount int       `json:"totalCount"`
}
