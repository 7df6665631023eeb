package query

import (
	"context"
	"fmt"
	"path"
	"slices"

	"ckb/internal/errors"
	"ckb/internal/logging"
	"ckb/internal/store"
)

// Retriever owns the hybrid retrieve operation (§4.5) for one daemon
// instance, shared across all repos.
type Retriever struct {
	store  *store.Store
	logger *logging.Logger
	embed  embedFunc
	model  string
}

// New builds a Retriever over the given store. embed is the Embedder's
// Provider.Embed method, kept behind a narrow func type so this package
// doesn't need to import internal/embed.
func New(st *store.Store, logger *logging.Logger, embed embedFunc, model string) *Retriever {
	return &Retriever{store: st, logger: logger, embed: embed, model: model}
}

// Retrieve answers a hybrid search request against repo's chunk table
// (§4.5 algorithm).
func (r *Retriever) Retrieve(ctx context.Context, repo *store.RepoEntry, req Request) (*Response, error) {
	return r.retrieve(ctx, repo, req, EntityChunk, "chunk")
}

// RetrieveDocuments mirrors Retrieve against the documents table, using the
// same weights and OR-tsquery policy (§4.5 "Document hybrid search").
func (r *Retriever) RetrieveDocuments(ctx context.Context, repo *store.RepoEntry, req Request) (*Response, error) {
	return r.retrieve(ctx, repo, req, EntityDocument, "document")
}

func (r *Retriever) retrieve(ctx context.Context, repo *store.RepoEntry, req Request, kind EntityKind, entityType string) (*Response, error) {
	model := req.Model
	if model == "" {
		model = r.model
	}

	vecHits, vecAvailable := r.tryVectorCandidates(ctx, repo.SchemaName, kind, model, req.Query)
	degraded := !vecAvailable

	ftsHits, ftsErr := r.ftsCandidates(ctx, repo.SchemaName, kind, req.Query)
	if ftsErr != nil {
		if degraded {
			return nil, errors.Wrap(errors.RetrievalUnavailable, "both vector and text retrieval paths failed", ftsErr)
		}
		r.logger.Warn("fts candidate query failed, falling back to vector-only", map[string]interface{}{
			"repo": repo.Name, "error": ftsErr.Error(),
		})
	}

	merged := mergeCandidates(vecHits, ftsHits)

	if req.RequireTextMatch {
		for id, c := range merged {
			if !c.hasFTS {
				delete(merged, id)
			}
		}
	}

	if req.Filters.PathGlob != "" || len(req.Filters.Languages) > 0 {
		for id, c := range merged {
			if req.Filters.PathGlob != "" {
				if ok, _ := path.Match(req.Filters.PathGlob, c.path); !ok {
					delete(merged, id)
					continue
				}
			}
			if len(req.Filters.Languages) > 0 && !slices.Contains(req.Filters.Languages, c.language) {
				delete(merged, id)
			}
		}
	}

	if err := r.applyTagFilter(ctx, repo, entityType, req.Filters, merged); err != nil {
		return nil, fmt.Errorf("apply tag filter: %w", err)
	}

	if repo.AutoGraphAssist && kind == EntityChunk {
		r.applyGraphAssist(ctx, repo, merged)
	}

	results := rankCandidates(merged)
	topK := req.topK()
	if len(results) > topK {
		results = results[:topK]
	}

	return &Response{Results: results, Degraded: degraded}, nil
}

// tryVectorCandidates embeds the query and runs the vector-candidate search,
// returning ok=false whenever the provider or the query is unavailable so
// the caller can fall back to FTS-only (§4.5 "Failure semantics").
func (r *Retriever) tryVectorCandidates(ctx context.Context, schemaName string, kind EntityKind, model, queryText string) ([]vectorHit, bool) {
	if r.embed == nil {
		return nil, false
	}
	vectors, err := r.embed(ctx, model, []string{queryText})
	if err != nil || len(vectors) == 0 {
		if err != nil {
			r.logger.Warn("embedding provider unavailable, degrading to FTS-only", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	hits, err := r.vectorCandidates(ctx, schemaName, kind, vectors[0])
	if err != nil {
		r.logger.Warn("vector candidate query failed, degrading to FTS-only", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return hits, true
}

// applyTagFilter loads matched tags for every candidate, drops candidates
// that fail the Filters.TagsAll/TagsAny mask, and records each survivor's
// matched tags (§4.5 step 4).
func (r *Retriever) applyTagFilter(ctx context.Context, repo *store.RepoEntry, entityType string, f Filters, merged map[string]*candidate) error {
	if len(merged) == 0 {
		return nil
	}
	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}

	tagsByEntity, err := r.loadTags(ctx, repo.SchemaName, entityType, repo.ID.String(), ids)
	if err != nil {
		return err
	}

	for id, c := range merged {
		tags := tagsByEntity[id]
		if !passesTagFilter(tags, f) {
			delete(merged, id)
			continue
		}
		c.matchedTags = matchedFilterTags(tags, f)
	}
	return nil
}

// applyGraphAssist blends an in-degree-based boost into each candidate's
// graph_boost, best-effort: a failure here degrades ranking quality, not
// retrieval availability (§4.5 "Symbol-graph assist").
func (r *Retriever) applyGraphAssist(ctx context.Context, repo *store.RepoEntry, merged map[string]*candidate) {
	g, err := buildSymbolGraph(ctx, r.store.Pool(), repo.SchemaName)
	if err != nil {
		r.logger.Warn("graph assist build failed", map[string]interface{}{"repo": repo.Name, "error": err.Error()})
		return
	}
	boosts := graphAssistBoosts(ctx, g, merged)
	for id, boost := range boosts {
		if c, ok := merged[id]; ok {
			c.graphBoost = boost
		}
	}
}
