package mcp

import (
	"context"
	"fmt"

	"ckb/internal/jobs"
	"ckb/internal/query"
	"ckb/internal/store"
)

func argStr(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func argInt(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func argStrSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (s *MCPServer) repoByName(ctx context.Context, args map[string]interface{}) (*store.RepoEntry, error) {
	name := argStr(args, "repo")
	if name == "" {
		return nil, fmt.Errorf("missing required argument %q", "repo")
	}
	return s.store.Get(ctx, name)
}

// toolHandlers builds the name->handler map for one tools/call dispatch.
// Rebuilt per call (cheap) so every handler closes over the request's ctx
// instead of the server's background context.
func (s *MCPServer) toolHandlers(ctx context.Context) map[string]ToolHandler {
	return map[string]ToolHandler{
		"list_repos":           s.toolListRepos(ctx),
		"hybrid_search":        s.toolHybridSearch(ctx),
		"symbol_lookup":        s.toolSymbolLookup(ctx),
		"symbol_context":       s.toolSymbolContext(ctx),
		"callers":              s.toolCallers(ctx),
		"callees":              s.toolCallees(ctx),
		"doc_search":           s.toolDocSearch(ctx),
		"pattern_scan":         s.toolPatternScan(ctx),
		"list_files":           s.toolListFiles(ctx),
		"read_file":            s.toolReadFile(ctx),
		"list_tags":            s.toolListTags(ctx),
		"tag_entity":           s.toolTagEntity(ctx),
		"repo_add":             s.toolRepoAdd(ctx),
		"enqueue_reindex_file": s.toolEnqueueReindexFile(ctx),
		"enqueue_reindex_many": s.toolEnqueueReindexMany(ctx),
		"daemon_status":        s.toolDaemonStatus(ctx),
		"index_status":         s.toolIndexStatus(ctx),
	}
}

func (s *MCPServer) toolListRepos(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		return s.store.List(ctx)
	}
}

func (s *MCPServer) toolHybridSearch(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		q := argStr(args, "query")
		if q == "" {
			return nil, fmt.Errorf("missing required argument %q", "query")
		}
		req := query.Request{
			Query: q,
			TopK:  argInt(args, "topK", 0),
			Filters: query.Filters{
				PathGlob:  argStr(args, "pathGlob"),
				Languages: argStrSlice(args, "languages"),
				TagsAll:   argStrSlice(args, "tagsAll"),
				TagsAny:   argStrSlice(args, "tagsAny"),
			},
		}
		if argStr(args, "entity") == "document" {
			return s.retriever.RetrieveDocuments(ctx, repo, req)
		}
		return s.retriever.Retrieve(ctx, repo, req)
	}
}

func (s *MCPServer) toolSymbolLookup(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		name := argStr(args, "name")
		if name == "" {
			return nil, fmt.Errorf("missing required argument %q", "name")
		}
		return s.retriever.SymbolLookup(ctx, repo, name)
	}
}

func (s *MCPServer) toolSymbolContext(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		symbolID := argStr(args, "symbolId")
		if symbolID == "" {
			return nil, fmt.Errorf("missing required argument %q", "symbolId")
		}
		sym, src, err := s.retriever.SymbolContext(ctx, repo, symbolID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"symbol": sym, "source": src}, nil
	}
}

func (s *MCPServer) toolCallers(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		symbolID := argStr(args, "symbolId")
		if symbolID == "" {
			return nil, fmt.Errorf("missing required argument %q", "symbolId")
		}
		return s.retriever.Callers(ctx, repo, symbolID)
	}
}

func (s *MCPServer) toolCallees(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		symbolID := argStr(args, "symbolId")
		if symbolID == "" {
			return nil, fmt.Errorf("missing required argument %q", "symbolId")
		}
		return s.retriever.Callees(ctx, repo, symbolID)
	}
}

func (s *MCPServer) toolDocSearch(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		q := argStr(args, "query")
		if q == "" {
			return nil, fmt.Errorf("missing required argument %q", "query")
		}
		req := query.Request{Query: q, TopK: argInt(args, "topK", 0)}
		return s.retriever.RetrieveDocuments(ctx, repo, req)
	}
}

func (s *MCPServer) toolPatternScan(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		pattern := argStr(args, "pattern")
		if pattern == "" {
			return nil, fmt.Errorf("missing required argument %q", "pattern")
		}
		return s.retriever.PatternScan(ctx, repo, pattern, argInt(args, "limit", 0))
	}
}

func (s *MCPServer) toolListFiles(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		return s.retriever.ListFiles(ctx, repo, argStr(args, "pathGlob"))
	}
}

func (s *MCPServer) toolReadFile(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		path := argStr(args, "path")
		if path == "" {
			return nil, fmt.Errorf("missing required argument %q", "path")
		}
		content, err := s.retriever.ReadFile(ctx, repo, path)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"path": path, "content": content}, nil
	}
}

func (s *MCPServer) toolListTags(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		return s.tags.ListTags(ctx, repo.SchemaName)
	}
}

func (s *MCPServer) toolTagEntity(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		entityType := argStr(args, "entityType")
		entityID := argStr(args, "entityId")
		tag := argStr(args, "tag")
		if entityType == "" || entityID == "" || tag == "" {
			return nil, fmt.Errorf("entityType, entityId, and tag are all required")
		}
		if err := s.tags.TagEntity(ctx, repo.ID, repo.SchemaName, entityType, entityID, tag); err != nil {
			return nil, err
		}
		return map[string]interface{}{"tagged": true}, nil
	}
}

func (s *MCPServer) toolRepoAdd(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		name := argStr(args, "name")
		rootPath := argStr(args, "rootPath")
		if name == "" || rootPath == "" {
			return nil, fmt.Errorf("name and rootPath are both required")
		}
		return s.store.Register(ctx, store.RegisterOptions{
			Name:      name,
			RootPath:  rootPath,
			Enabled:   true,
			AutoIndex: true,
			AutoEmbed: true,
		})
	}
}

func (s *MCPServer) toolEnqueueReindexFile(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		path := argStr(args, "path")
		if path == "" {
			return nil, fmt.Errorf("missing required argument %q", "path")
		}
		op := jobs.OpUpsert
		if argStr(args, "op") == string(jobs.OpDelete) {
			op = jobs.OpDelete
		}
		id, err := s.jobs.Enqueue(ctx, repo.Name, repo.SchemaName, jobs.ReindexFile,
			jobs.ReindexFilePayload{Path: path, Op: op}, jobs.EnqueueOptions{})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"jobId": id}, nil
	}
}

func (s *MCPServer) toolEnqueueReindexMany(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		paths := argStrSlice(args, "paths")
		if len(paths) == 0 {
			return nil, fmt.Errorf("missing required argument %q", "paths")
		}
		files := make([]jobs.ReindexFilePayload, 0, len(paths))
		for _, p := range paths {
			files = append(files, jobs.ReindexFilePayload{Path: p, Op: jobs.OpUpsert})
		}
		id, err := s.jobs.Enqueue(ctx, repo.Name, repo.SchemaName, jobs.ReindexMany,
			jobs.ReindexManyPayload{Files: files}, jobs.EnqueueOptions{})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"jobId": id}, nil
	}
}

func (s *MCPServer) toolDaemonStatus(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		return s.health.ListInstances(ctx)
	}
}

func (s *MCPServer) toolIndexStatus(ctx context.Context) ToolHandler {
	return func(args map[string]interface{}) (interface{}, error) {
		repo, err := s.repoByName(ctx, args)
		if err != nil {
			return nil, err
		}
		status, err := s.embedder.Status(ctx, repo.SchemaName)
		if err != nil {
			return nil, err
		}
		indexStates, err := s.embedder.ListIndexStates(ctx, repo.SchemaName)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"embeddingStatus": status,
			"vectorIndexes":   indexStates,
		}, nil
	}
}
