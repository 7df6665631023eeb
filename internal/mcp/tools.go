package mcp

// Tool describes one MCP tool: its name, human-readable purpose, and the
// JSON Schema its arguments must satisfy.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolHandler executes one tool call against decoded arguments.
type ToolHandler func(args map[string]interface{}) (interface{}, error)

func schema(required []string, props map[string]interface{}) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func strProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func intProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func arrProp(desc string, items map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "array", "description": desc, "items": items}
}

// toolDefinitions is the exact 17-tool surface (§6) this daemon exposes over
// MCP stdio.
func toolDefinitions() []Tool {
	str := map[string]interface{}{"type": "string"}
	return []Tool{
		{
			Name:        "list_repos",
			Description: "List every repo registered with this daemon's control plane",
			InputSchema: schema(nil, map[string]interface{}{}),
		},
		{
			Name:        "hybrid_search",
			Description: "Hybrid vector+FTS search over a repo's chunks or documents (§4.5)",
			InputSchema: schema([]string{"repo", "query"}, map[string]interface{}{
				"repo":      strProp("Registered repo name"),
				"query":     strProp("Natural-language or keyword query"),
				"topK":      intProp("Maximum results to return (default 12)"),
				"entity":    strProp("chunk or document (default chunk)"),
				"languages": arrProp("Restrict to these languages", str),
				"tagsAll":   arrProp("Require all of these tags", str),
				"tagsAny":   arrProp("Require at least one of these tags", str),
				"pathGlob":  strProp("Restrict to paths matching this glob"),
			}),
		},
		{
			Name:        "symbol_lookup",
			Description: "Look up symbols by fully-qualified or simple name",
			InputSchema: schema([]string{"repo", "name"}, map[string]interface{}{
				"repo": strProp("Registered repo name"),
				"name": strProp("Fully-qualified or simple symbol name"),
			}),
		},
		{
			Name:        "symbol_context",
			Description: "Return a symbol's declaration and source snippet",
			InputSchema: schema([]string{"repo", "symbolId"}, map[string]interface{}{
				"repo":     strProp("Registered repo name"),
				"symbolId": strProp("Symbol id (as returned by symbol_lookup)"),
			}),
		},
		{
			Name:        "callers",
			Description: "List symbols that call the given symbol (§4 edge resolution)",
			InputSchema: schema([]string{"repo", "symbolId"}, map[string]interface{}{
				"repo":     strProp("Registered repo name"),
				"symbolId": strProp("Symbol id"),
			}),
		},
		{
			Name:        "callees",
			Description: "List symbols the given symbol calls",
			InputSchema: schema([]string{"repo", "symbolId"}, map[string]interface{}{
				"repo":     strProp("Registered repo name"),
				"symbolId": strProp("Symbol id"),
			}),
		},
		{
			Name:        "doc_search",
			Description: "Hybrid search over a repo's indexed documents",
			InputSchema: schema([]string{"repo", "query"}, map[string]interface{}{
				"repo":  strProp("Registered repo name"),
				"query": strProp("Natural-language or keyword query"),
				"topK":  intProp("Maximum results to return (default 12)"),
			}),
		},
		{
			Name:        "pattern_scan",
			Description: "Regular-expression scan over every indexed chunk's content",
			InputSchema: schema([]string{"repo", "pattern"}, map[string]interface{}{
				"repo":    strProp("Registered repo name"),
				"pattern": strProp("POSIX regular expression"),
				"limit":   intProp("Maximum matches to return (default 50)"),
			}),
		},
		{
			Name:        "list_files",
			Description: "List every file indexed for a repo, optionally filtered by glob",
			InputSchema: schema([]string{"repo"}, map[string]interface{}{
				"repo":     strProp("Registered repo name"),
				"pathGlob": strProp("Restrict to paths matching this glob"),
			}),
		},
		{
			Name:        "read_file",
			Description: "Read one indexed file's current on-disk content",
			InputSchema: schema([]string{"repo", "path"}, map[string]interface{}{
				"repo": strProp("Registered repo name"),
				"path": strProp("File path, relative to the repo root"),
			}),
		},
		{
			Name:        "list_tags",
			Description: "List every tag known to the control plane with its usage count in a repo",
			InputSchema: schema([]string{"repo"}, map[string]interface{}{
				"repo": strProp("Registered repo name"),
			}),
		},
		{
			Name:        "tag_entity",
			Description: "Attach a manual tag to an entity (chunk, document, or symbol)",
			InputSchema: schema([]string{"repo", "entityType", "entityId", "tag"}, map[string]interface{}{
				"repo":       strProp("Registered repo name"),
				"entityType": strProp("chunk, document, or symbol"),
				"entityId":   strProp("Entity id"),
				"tag":        strProp("Tag name"),
			}),
		},
		{
			Name:        "repo_add",
			Description: "Register a new repo with the control plane and create its schema",
			InputSchema: schema([]string{"name", "rootPath"}, map[string]interface{}{
				"name":     strProp("Unique repo name"),
				"rootPath": strProp("Absolute path to the repo's working tree"),
			}),
		},
		{
			Name:        "enqueue_reindex_file",
			Description: "Enqueue a REINDEX_FILE job for one path",
			InputSchema: schema([]string{"repo", "path"}, map[string]interface{}{
				"repo": strProp("Registered repo name"),
				"path": strProp("File path, relative to the repo root"),
				"op":   strProp("UPSERT or DELETE (default UPSERT)"),
			}),
		},
		{
			Name:        "enqueue_reindex_many",
			Description: "Enqueue a REINDEX_MANY job for a batch of paths",
			InputSchema: schema([]string{"repo", "paths"}, map[string]interface{}{
				"repo":  strProp("Registered repo name"),
				"paths": arrProp("File paths, relative to the repo root", str),
			}),
		},
		{
			Name:        "daemon_status",
			Description: "Report the heartbeat status of every known daemon instance, stale ones included (§4.6.2)",
			InputSchema: schema(nil, map[string]interface{}{}),
		},
		{
			Name:        "index_status",
			Description: "Report embedding coverage and vector-index state for a repo",
			InputSchema: schema([]string{"repo"}, map[string]interface{}{
				"repo": strProp("Registered repo name"),
			}),
		},
	}
}
