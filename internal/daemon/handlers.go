package daemon

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"ckb/internal/docs"
	"ckb/internal/embed"
	"ckb/internal/errors"
	"ckb/internal/indexer"
	"ckb/internal/jobs"
	"ckb/internal/logging"
	"ckb/internal/store"
	"ckb/internal/summary"
	"ckb/internal/tags"
)

// RegisterHandlers wires the job Handlers that drive C3-C6 (§4.7) into
// runner, resolving each job's repo via registry before dispatching to the
// Indexer, Embedder, Summarizer, or tag Syncer. A job whose repo has since
// been deleted fails permanently rather than retrying forever.
func RegisterHandlers(runner *jobs.Runner, registry *store.Store, ix *indexer.Indexer, emb *embed.Embedder, sum *summary.Summarizer, logger *logging.Logger, defaultModel string) {
	h := &handlers{
		registry:     registry,
		ix:           ix,
		emb:          emb,
		sum:          sum,
		tagSyncer:    tags.New(registry, logger),
		logger:       logger,
		defaultModel: defaultModel,
	}

	runner.RegisterHandler(jobs.FullIndex, h.fullIndex)
	runner.RegisterHandler(jobs.ReindexFile, h.reindexFile)
	runner.RegisterHandler(jobs.ReindexMany, h.reindexMany)
	runner.RegisterHandler(jobs.EmbedMissing, h.embedMissing)
	runner.RegisterHandler(jobs.EmbedChunk, h.embedChunk)
	runner.RegisterHandler(jobs.EmbedSummaries, h.embedSummaries)
	runner.RegisterHandler(jobs.DocsScan, h.docsScan)
	runner.RegisterHandler(jobs.TagRulesSync, h.tagRulesSync)
	runner.RegisterHandler(jobs.SummarizeMissing, h.summarizeFiles)
	runner.RegisterHandler(jobs.SummarizeFiles, h.summarizeFiles)
	runner.RegisterHandler(jobs.SummarizeSymbols, h.summarizeSymbols)
	runner.RegisterHandler(jobs.RegenerateSummary, h.regenerateSummary)
}

type handlers struct {
	registry     *store.Store
	ix           *indexer.Indexer
	emb          *embed.Embedder
	sum          *summary.Summarizer
	tagSyncer    *tags.Syncer
	logger       *logging.Logger
	defaultModel string
}

func (h *handlers) repoFor(ctx context.Context, job *jobs.Job) (*store.RepoEntry, error) {
	repo, err := h.registry.Get(ctx, job.RepoName)
	if err != nil {
		return nil, errors.Wrap(errors.RepoNotFound, fmt.Sprintf("repo %q no longer registered", job.RepoName), err)
	}
	return repo, nil
}

func (h *handlers) modelFor(repo *store.RepoEntry) string {
	if repo.Config != nil {
		if v, ok := repo.Config["embeddingModel"].(string); ok && v != "" {
			return v
		}
	}
	return h.defaultModel
}

func (h *handlers) fullIndex(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	progress(5)
	stats, err := h.ix.FullIndex(ctx, repo)
	if err != nil {
		return nil, err
	}
	progress(100)
	return stats, nil
}

func (h *handlers) reindexFile(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	var payload jobs.ReindexFilePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, errors.Wrap(errors.ParseFailure, "invalid reindex_file payload", err)
	}
	if err := h.ix.ReindexFile(ctx, repo, payload.Path, payload.Op); err != nil {
		return nil, err
	}
	progress(100)
	return nil, nil
}

func (h *handlers) reindexMany(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	var payload jobs.ReindexManyPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, errors.Wrap(errors.ParseFailure, "invalid reindex_many payload", err)
	}
	progress(5)
	stats, err := h.ix.ReindexMany(ctx, repo, payload.Files)
	if err != nil {
		return nil, err
	}
	progress(100)
	return stats, nil
}

func (h *handlers) embedMissing(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	var payload jobs.EmbedMissingPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, errors.Wrap(errors.ParseFailure, "invalid embed_missing payload", err)
	}
	table := embed.Table(payload.Table)
	if table == "" {
		table = embed.TableChunk
	}
	progress(5)
	result, err := h.emb.EmbedMissing(ctx, repo.SchemaName, table, h.modelFor(repo))
	if err != nil {
		return nil, err
	}
	progress(100)
	return result, nil
}

// embedChunk handles a single-chunk EMBED_CHUNK job the same way as
// embed_missing scoped to "chunk": the embedder dedups by content_hash, so
// re-running the whole table's backlog sweep is safe and simpler than
// threading a chunk-id filter through EmbedMissing.
func (h *handlers) embedChunk(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	progress(5)
	result, err := h.emb.EmbedMissing(ctx, repo.SchemaName, embed.TableChunk, h.modelFor(repo))
	if err != nil {
		return nil, err
	}
	progress(100)
	return result, nil
}

// embedSummaries embeds every summary row lacking a paired vector, the
// terminal step of the DOCS_SCAN/SUMMARIZE_* dependency chain (§4.6.3).
func (h *handlers) embedSummaries(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	progress(5)
	result, err := h.emb.EmbedMissing(ctx, repo.SchemaName, embed.TableSummary, h.modelFor(repo))
	if err != nil {
		return nil, err
	}
	progress(100)
	return result, nil
}

// docsScan scans the repo's markdown/ADR documentation and upserts it into
// the document table (§4.7 DOCS_SCAN).
func (h *handlers) docsScan(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	var payload jobs.DocsScanPayload
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return nil, errors.Wrap(errors.ParseFailure, "invalid docs_scan payload", err)
		}
	}
	progress(5)
	result, err := docs.SyncToSchema(ctx, h.registry, repo.RootPath, repo.SchemaName, payload.Patterns)
	if err != nil {
		return nil, err
	}
	progress(100)
	return result, nil
}

// tagRulesSync re-evaluates path-glob tag rules against every file in the
// repo (§4.7 TAG_RULES_SYNC).
func (h *handlers) tagRulesSync(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	progress(5)
	result, err := h.tagSyncer.Sync(ctx, repo.ID, repo.SchemaName, tags.DefaultRules)
	if err != nil {
		return nil, err
	}
	progress(100)
	return result, nil
}

// summarizeFiles synthesizes summaries for files lacking one (§4.7
// SUMMARIZE_MISSING and SUMMARIZE_FILES both run this: SUMMARIZE_MISSING is
// the combined sweep, SUMMARIZE_FILES its file-scoped half).
func (h *handlers) summarizeFiles(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	progress(5)
	result, err := h.sum.SummarizeMissing(ctx, repo.SchemaName, summary.EntityFile, h.modelFor(repo))
	if err != nil {
		return nil, err
	}
	if job.JobType == jobs.SummarizeMissing {
		symResult, err := h.sum.SummarizeMissing(ctx, repo.SchemaName, summary.EntitySymbol, h.modelFor(repo))
		if err != nil {
			return nil, err
		}
		result.Candidates += symResult.Candidates
		result.Summarized += symResult.Summarized
	}
	progress(100)
	return result, nil
}

// summarizeSymbols synthesizes summaries for symbols lacking one (§4.7
// SUMMARIZE_SYMBOLS).
func (h *handlers) summarizeSymbols(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	progress(5)
	result, err := h.sum.SummarizeMissing(ctx, repo.SchemaName, summary.EntitySymbol, h.modelFor(repo))
	if err != nil {
		return nil, err
	}
	progress(100)
	return result, nil
}

// regenerateSummary force-regenerates one entity's summary regardless of
// whether it already has one (§4.7 REGENERATE_SUMMARY, not idempotent on
// retry).
func (h *handlers) regenerateSummary(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
	repo, err := h.repoFor(ctx, job)
	if err != nil {
		return nil, err
	}
	var payload jobs.RegenerateSummaryPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, errors.Wrap(errors.ParseFailure, "invalid regenerate_summary payload", err)
	}
	entityID, err := uuid.Parse(payload.EntityID)
	if err != nil {
		return nil, errors.Wrap(errors.ParseFailure, "invalid regenerate_summary entityId", err)
	}
	progress(5)
	if err := h.sum.RegenerateSummary(ctx, repo.SchemaName, summary.EntityType(payload.EntityType), entityID, h.modelFor(repo)); err != nil {
		return nil, err
	}
	progress(100)
	return nil, nil
}
