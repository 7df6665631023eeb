package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ckb/internal/embed"
	"ckb/internal/errors"
	"ckb/internal/jobs"
	"ckb/internal/query"
	"ckb/internal/store"
	"ckb/internal/version"
)

// setupServer builds the admin HTTP plane (§6 "HTTP Management API") on a
// plain stdlib http.ServeMux — the teacher's own transport choice; no
// third-party router appears anywhere in the retrieval pack.
func (d *Daemon) setupServer() *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", d.handleHealth)

	mux.Handle("/api/registry", d.withAuth(http.HandlerFunc(d.handleRegistryCollection)))
	mux.Handle("/api/registry/", d.withAuth(http.HandlerFunc(d.handleRegistryItem)))

	mux.Handle("/api/jobs/cancel", d.withAuth(http.HandlerFunc(d.handleJobsCancel)))
	mux.Handle("/api/jobs/trigger", d.withAuth(http.HandlerFunc(d.handleJobsTrigger)))
	mux.Handle("/api/jobs/", d.withAuth(http.HandlerFunc(d.handleJobsItem)))

	mux.Handle("/api/search/hybrid", d.withAuth(http.HandlerFunc(d.handleSearchHybrid)))

	mux.Handle("/api/stats/overview", d.withAuth(http.HandlerFunc(d.handleStatsOverview)))
	mux.Handle("/api/stats/daemon", d.withAuth(http.HandlerFunc(d.handleStatsDaemon)))
	mux.Handle("/api/stats/jobs", d.withAuth(http.HandlerFunc(d.handleStatsJobs)))
	mux.Handle("/api/stats/capabilities", d.withAuth(http.HandlerFunc(d.handleStatsCapabilities)))

	mux.Handle("/api/maintenance/vector-indexes", d.withAuth(http.HandlerFunc(d.handleVectorIndexes)))
	mux.Handle("/api/maintenance/vector-indexes/rebuild", d.withAuth(http.HandlerFunc(d.handleVectorIndexRebuild)))
	mux.Handle("/api/maintenance/vector-indexes/switch", d.withAuth(http.HandlerFunc(d.handleVectorIndexSwitch)))
	mux.Handle("/api/maintenance/vector-indexes/recommendations", d.withAuth(http.HandlerFunc(d.handleVectorIndexes)))
	mux.Handle("/api/maintenance/embed-missing", d.withAuth(http.HandlerFunc(d.handleEmbedMissing)))
	mux.Handle("/api/maintenance/reembed-table", d.withAuth(http.HandlerFunc(d.handleReembedTable)))
	mux.Handle("/api/maintenance/embedding-status", d.withAuth(http.HandlerFunc(d.handleEmbeddingStatus)))

	addr := fmt.Sprintf("%s:%d", d.config.Bind, d.config.Port)

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks"`
}

func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := map[string]string{"database": "ok", "jobQueue": "ok"}
	status := "healthy"
	if d.registry != nil {
		if err := d.registry.Pool().Ping(r.Context()); err != nil {
			checks["database"] = "unreachable"
			status = "degraded"
		}
	} else {
		checks["database"] = "not configured"
		status = "degraded"
	}

	resp := HealthResponse{
		Status:  status,
		Version: version.Version,
		Uptime:  formatDuration(time.Since(d.startedAt)),
		Checks:  checks,
	}
	d.writeJSON(w, http.StatusOK, resp)
}

func (d *Daemon) requireControlPlane(w http.ResponseWriter) bool {
	if d.registry == nil {
		d.writeCkbError(w, http.StatusServiceUnavailable, errors.New(errors.RetrievalUnavailable, "control plane unavailable (store.dsn not configured or unreachable)"))
		return false
	}
	return true
}

// -- Registry ----------------------------------------------------------

type registerRequest struct {
	Name            string                 `json:"name"`
	RootPath        string                 `json:"root_path"`
	Enabled         *bool                  `json:"enabled,omitempty"`
	AutoIndex       *bool                  `json:"auto_index,omitempty"`
	AutoEmbed       *bool                  `json:"auto_embed,omitempty"`
	AutoWatch       *bool                  `json:"auto_watch,omitempty"`
	AutoSummaries   *bool                  `json:"auto_summaries,omitempty"`
	AutoGraphAssist *bool                  `json:"auto_graph_assist,omitempty"`
	EmbeddingDim    int                    `json:"embedding_dim,omitempty"`
	Config          map[string]interface{} `json:"config,omitempty"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func (d *Daemon) handleRegistryCollection(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		repos, err := d.registry.List(r.Context())
		if err != nil {
			d.writeCkbError(w, http.StatusInternalServerError, errors.Wrap(errors.IOError, "list repos", err))
			return
		}
		d.writeJSON(w, http.StatusOK, map[string]interface{}{"repos": repos})
	case http.MethodPost:
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid JSON body"))
			return
		}
		entry, err := d.registry.Register(r.Context(), store.RegisterOptions{
			Name:            req.Name,
			RootPath:        req.RootPath,
			Enabled:         boolOr(req.Enabled, true),
			AutoIndex:       boolOr(req.AutoIndex, true),
			AutoEmbed:       boolOr(req.AutoEmbed, true),
			AutoWatch:       boolOr(req.AutoWatch, false),
			AutoSummaries:   boolOr(req.AutoSummaries, false),
			AutoGraphAssist: boolOr(req.AutoGraphAssist, false),
			EmbeddingDim:    req.EmbeddingDim,
			Config:          req.Config,
		})
		if err != nil {
			d.writeCkbError(w, http.StatusConflict, err)
			return
		}
		if entry.AutoIndex && d.jobStore != nil {
			_, _ = d.jobStore.Enqueue(r.Context(), entry.Name, entry.SchemaName, jobs.FullIndex,
				jobs.FullIndexPayload{RootPath: entry.RootPath}, jobs.EnqueueOptions{})
		}
		d.writeJSON(w, http.StatusCreated, entry)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (d *Daemon) handleRegistryItem(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/registry/")
	parts := strings.SplitN(rest, "/", 2)
	name := parts[0]
	if name == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 2 && parts[1] == "jobs" {
		d.handleRepoJobs(w, r, name)
		return
	}

	switch r.Method {
	case http.MethodGet:
		entry, err := d.registry.ResolveWithSuggestions(r.Context(), name)
		if err != nil {
			d.writeCkbError(w, http.StatusNotFound, err)
			return
		}
		d.writeJSON(w, http.StatusOK, entry)
	case http.MethodPut:
		var patch map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid JSON body"))
			return
		}
		entry, err := d.registry.Update(r.Context(), name, patch)
		if err != nil {
			d.writeCkbError(w, http.StatusNotFound, err)
			return
		}
		d.writeJSON(w, http.StatusOK, entry)
	case http.MethodDelete:
		deleteSchema := r.URL.Query().Get("delete_schema") == "true"
		if err := d.registry.Delete(r.Context(), name, deleteSchema); err != nil {
			d.writeCkbError(w, http.StatusNotFound, err)
			return
		}
		d.writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": name})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (d *Daemon) handleRepoJobs(w http.ResponseWriter, r *http.Request, name string) {
	entry, err := d.registry.ResolveWithSuggestions(r.Context(), name)
	if err != nil {
		d.writeCkbError(w, http.StatusNotFound, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		opts := jobs.ListOptions{RepoName: entry.Name}
		if status := r.URL.Query().Get("status"); status != "" {
			opts.Status = []jobs.Status{jobs.Status(strings.ToUpper(status))}
		}
		if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
			opts.Limit = limit
		}
		resp, err := d.jobStore.List(r.Context(), opts)
		if err != nil {
			d.writeCkbError(w, http.StatusInternalServerError, errors.Wrap(errors.IOError, "list jobs", err))
			return
		}
		d.writeJSON(w, http.StatusOK, resp)
	case http.MethodPost:
		var body struct {
			JobType  string          `json:"job_type"`
			Priority int             `json:"priority,omitempty"`
			Payload  json.RawMessage `json:"payload,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid JSON body"))
			return
		}
		var payload interface{} = body.Payload
		if body.Payload == nil {
			payload = struct{}{}
		}
		id, err := d.jobStore.Enqueue(r.Context(), entry.Name, entry.SchemaName, jobs.Type(body.JobType),
			payload, jobs.EnqueueOptions{Priority: body.Priority})
		if err != nil {
			d.writeCkbError(w, http.StatusBadRequest, errors.Wrap(errors.IOError, "enqueue job", err))
			return
		}
		d.writeJSON(w, http.StatusCreated, map[string]interface{}{"job_id": id})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// -- Jobs ----------------------------------------------------------------

func (d *Daemon) handleJobsItem(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/api/jobs/"))
	if err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid job id"))
		return
	}
	job, err := d.jobStore.Get(r.Context(), id)
	if err != nil {
		d.writeCkbError(w, http.StatusNotFound, errors.Wrap(errors.IOError, "job not found", err))
		return
	}
	d.writeJSON(w, http.StatusOK, job)
}

func (d *Daemon) handleJobsCancel(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid JSON body"))
		return
	}
	id, err := uuid.Parse(body.JobID)
	if err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid job_id"))
		return
	}
	if err := d.jobStore.Cancel(r.Context(), id); err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.Wrap(errors.IOError, "cancel job", err))
		return
	}
	d.writeJSON(w, http.StatusOK, map[string]interface{}{"cancelled": id})
}

func (d *Daemon) handleJobsTrigger(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		RepoName string          `json:"repo_name"`
		JobType  string          `json:"job_type"`
		Priority int             `json:"priority,omitempty"`
		Payload  json.RawMessage `json:"payload,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid JSON body"))
		return
	}
	entry, err := d.registry.ResolveWithSuggestions(r.Context(), body.RepoName)
	if err != nil {
		d.writeCkbError(w, http.StatusNotFound, err)
		return
	}
	var payload interface{} = body.Payload
	if body.Payload == nil {
		payload = struct{}{}
	}
	id, err := d.jobStore.Enqueue(r.Context(), entry.Name, entry.SchemaName, jobs.Type(body.JobType),
		payload, jobs.EnqueueOptions{Priority: body.Priority})
	if err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.Wrap(errors.IOError, "enqueue job", err))
		return
	}
	d.writeJSON(w, http.StatusCreated, map[string]interface{}{"job_id": id})
}

// -- Retrieval -------------------------------------------------------------

type hybridSearchRequest struct {
	Query            string         `json:"query"`
	Repo             string         `json:"repo"`
	TopK             int            `json:"top_k,omitempty"`
	Filters          query.Filters  `json:"filters,omitempty"`
	RequireTextMatch bool           `json:"require_text_match,omitempty"`
}

func (d *Daemon) handleSearchHybrid(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req hybridSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid JSON body"))
		return
	}
	entry, err := d.registry.ResolveWithSuggestions(r.Context(), req.Repo)
	if err != nil {
		d.writeCkbError(w, http.StatusNotFound, err)
		return
	}
	resp, err := d.retriever.Retrieve(r.Context(), entry, query.Request{
		Query:            req.Query,
		TopK:             req.TopK,
		Filters:          req.Filters,
		RequireTextMatch: req.RequireTextMatch,
	})
	if err != nil {
		d.writeCkbError(w, http.StatusInternalServerError, errors.Wrap(errors.RetrievalUnavailable, "hybrid search", err))
		return
	}
	d.writeJSON(w, http.StatusOK, resp)
}

// -- Stats -----------------------------------------------------------------

func (d *Daemon) handleStatsOverview(w http.ResponseWriter, r *http.Request) {
	overview := map[string]interface{}{
		"version":      version.Version,
		"uptime":       formatDuration(time.Since(d.startedAt)),
		"controlPlane": d.registry != nil,
	}
	if d.registry != nil {
		if repos, err := d.registry.List(r.Context()); err == nil {
			overview["repoCount"] = len(repos)
		}
	}
	d.writeJSON(w, http.StatusOK, overview)
}

func (d *Daemon) handleStatsDaemon(w http.ResponseWriter, r *http.Request) {
	d.writeJSON(w, http.StatusOK, d.State())
}

func (d *Daemon) handleStatsJobs(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	resp, err := d.jobStore.List(r.Context(), jobs.ListOptions{Limit: 20})
	if err != nil {
		d.writeCkbError(w, http.StatusInternalServerError, errors.Wrap(errors.IOError, "list jobs", err))
		return
	}
	d.writeJSON(w, http.StatusOK, resp)
}

func (d *Daemon) handleStatsCapabilities(w http.ResponseWriter, r *http.Request) {
	caps := map[string]interface{}{
		"jobTypes": jobs.TypeRegistry,
	}
	if d.fullConfig != nil {
		caps["embedding"] = map[string]interface{}{
			"kind":      d.fullConfig.Embedding.Kind,
			"model":     d.fullConfig.Embedding.Model,
			"dimension": d.fullConfig.Store.EmbeddingDim,
		}
		caps["summary"] = map[string]interface{}{
			"kind":  d.fullConfig.Summary.Kind,
			"model": d.fullConfig.Summary.Model,
		}
	}
	d.writeJSON(w, http.StatusOK, caps)
}

// -- Maintenance -------------------------------------------------------------

func (d *Daemon) repoFromQuery(w http.ResponseWriter, r *http.Request) (*store.RepoEntry, bool) {
	name := r.URL.Query().Get("repo")
	entry, err := d.registry.ResolveWithSuggestions(r.Context(), name)
	if err != nil {
		d.writeCkbError(w, http.StatusNotFound, err)
		return nil, false
	}
	return entry, true
}

func (d *Daemon) handleVectorIndexes(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	entry, ok := d.repoFromQuery(w, r)
	if !ok {
		return
	}
	states, err := d.embedder.ListIndexStates(r.Context(), entry.SchemaName)
	if err != nil {
		d.writeCkbError(w, http.StatusInternalServerError, errors.Wrap(errors.IOError, "list index states", err))
		return
	}
	d.writeJSON(w, http.StatusOK, map[string]interface{}{"indexes": states})
}

func (d *Daemon) handleVectorIndexRebuild(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Repo  string `json:"repo"`
		Table string `json:"table"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid JSON body"))
		return
	}
	entry, err := d.registry.ResolveWithSuggestions(r.Context(), body.Repo)
	if err != nil {
		d.writeCkbError(w, http.StatusNotFound, err)
		return
	}
	if err := d.embedder.RebuildIndex(r.Context(), entry.SchemaName, embed.Table(body.Table)); err != nil {
		d.writeCkbError(w, http.StatusInternalServerError, errors.Wrap(errors.IOError, "rebuild index", err))
		return
	}
	d.writeJSON(w, http.StatusOK, map[string]interface{}{"rebuilt": body.Table})
}

func (d *Daemon) handleVectorIndexSwitch(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Repo  string `json:"repo"`
		Table string `json:"table"`
		Kind  string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid JSON body"))
		return
	}
	entry, err := d.registry.ResolveWithSuggestions(r.Context(), body.Repo)
	if err != nil {
		d.writeCkbError(w, http.StatusNotFound, err)
		return
	}
	if err := d.embedder.SwitchIndexKind(r.Context(), entry.SchemaName, embed.Table(body.Table), body.Kind); err != nil {
		d.writeCkbError(w, http.StatusInternalServerError, errors.Wrap(errors.IOError, "switch index kind", err))
		return
	}
	d.writeJSON(w, http.StatusOK, map[string]interface{}{"switched": body.Table, "kind": body.Kind})
}

func (d *Daemon) handleEmbedMissing(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Repo  string `json:"repo"`
		Table string `json:"table"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid JSON body"))
		return
	}
	entry, err := d.registry.ResolveWithSuggestions(r.Context(), body.Repo)
	if err != nil {
		d.writeCkbError(w, http.StatusNotFound, err)
		return
	}
	if body.Table == "" {
		body.Table = "chunk"
	}
	id, err := d.jobStore.Enqueue(r.Context(), entry.Name, entry.SchemaName, jobs.EmbedMissing,
		jobs.EmbedMissingPayload{Table: body.Table}, jobs.EnqueueOptions{})
	if err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.Wrap(errors.IOError, "enqueue embed-missing", err))
		return
	}
	d.writeJSON(w, http.StatusCreated, map[string]interface{}{"job_id": id})
}

func (d *Daemon) handleReembedTable(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Repo  string `json:"repo"`
		Table string `json:"table"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.New(errors.IOError, "invalid JSON body"))
		return
	}
	entry, err := d.registry.ResolveWithSuggestions(r.Context(), body.Repo)
	if err != nil {
		d.writeCkbError(w, http.StatusNotFound, err)
		return
	}
	id, err := d.jobStore.Enqueue(r.Context(), entry.Name, entry.SchemaName, jobs.EmbedMissing,
		jobs.EmbedMissingPayload{Table: body.Table}, jobs.EnqueueOptions{DedupKey: "reembed-" + entry.Name + "-" + body.Table})
	if err != nil {
		d.writeCkbError(w, http.StatusBadRequest, errors.Wrap(errors.IOError, "enqueue reembed", err))
		return
	}
	d.writeJSON(w, http.StatusCreated, map[string]interface{}{"job_id": id})
}

func (d *Daemon) handleEmbeddingStatus(w http.ResponseWriter, r *http.Request) {
	if !d.requireControlPlane(w) {
		return
	}
	entry, ok := d.repoFromQuery(w, r)
	if !ok {
		return
	}
	status, err := d.embedder.Status(r.Context(), entry.SchemaName)
	if err != nil {
		d.writeCkbError(w, http.StatusInternalServerError, errors.Wrap(errors.IOError, "embedding status", err))
		return
	}
	d.writeJSON(w, http.StatusOK, map[string]interface{}{"status": status})
}

// -- Response helpers --------------------------------------------------------

// writeJSON writes a JSON response
func (d *Daemon) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		d.logger.Printf("Failed to encode JSON response: %v", err)
	}
}

// writeError writes a {error, detail} envelope for handlers (notably the
// auth middleware) that don't have a structured *errors.CkbError on hand.
func (d *Daemon) writeError(w http.ResponseWriter, status int, code, message string) {
	d.writeJSON(w, status, map[string]interface{}{"error": code, "detail": message})
}

// writeCkbError renders err as the §6 error envelope
// {error, detail, recovery_hint, suggestions?}, unwrapping a *errors.CkbError
// when present to carry its suggestions/recovery hint through.
func (d *Daemon) writeCkbError(w http.ResponseWriter, status int, err error) {
	body := map[string]interface{}{"error": err.Error()}
	var ckbErr *errors.CkbError
	if ce, ok := err.(*errors.CkbError); ok {
		ckbErr = ce
	}
	if ckbErr != nil {
		body["detail"] = ckbErr.Message
		if ckbErr.RecoveryHint != "" {
			body["recovery_hint"] = ckbErr.RecoveryHint
		}
		if len(ckbErr.Suggestions) > 0 {
			body["suggestions"] = ckbErr.Suggestions
		}
	}
	d.writeJSON(w, status, body)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
