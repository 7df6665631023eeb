package query

import (
	"context"
	"fmt"

	"ckb/internal/store"
)

// Symbol is one row from a repo schema's symbol table, returned by
// SymbolLookup/Callers/Callees for the symbol_lookup/callers/callees MCP
// tools (§6).
type Symbol struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	FQN        string `json:"fqn,omitempty"`
	SimpleName string `json:"simpleName"`
	Kind       string `json:"kind"`
	StartLine  int    `json:"startLine"`
	EndLine    int    `json:"endLine"`
	Signature  string `json:"signature,omitempty"`
	Language   string `json:"language"`
	Complexity int    `json:"complexity,omitempty"`
}

// Edge is one row from a repo schema's edge table, the from/to side of a
// Callers/Callees result.
type Edge struct {
	Symbol    Symbol `json:"symbol"`
	EdgeType  string `json:"edgeType"`
	EvidenceFile string `json:"evidenceFile"`
	EvidenceLine int    `json:"evidenceLine"`
}

const symbolSelectCols = `s.id, f.path, coalesce(s.fqn, ''), s.simple_name, s.kind, s.start_line, s.end_line, coalesce(s.signature, ''), s.language, coalesce(s.complexity, 0)`

func scanSymbol(row interface {
	Scan(dest ...interface{}) error
}) (Symbol, error) {
	var s Symbol
	err := row.Scan(&s.ID, &s.Path, &s.FQN, &s.SimpleName, &s.Kind, &s.StartLine, &s.EndLine, &s.Signature, &s.Language, &s.Complexity)
	return s, err
}

// SymbolLookup resolves name (an exact fqn or simple_name) to every
// matching symbol in repo's schema (§6 symbol_lookup).
func (r *Retriever) SymbolLookup(ctx context.Context, repo *store.RepoEntry, name string) ([]Symbol, error) {
	schema := quoteSchema(repo.SchemaName)
	rows, err := r.store.Pool().Query(ctx, fmt.Sprintf(`
SELECT %s FROM %s.symbol s JOIN %s.file f ON f.id = s.file_id
WHERE s.fqn = $1 OR s.simple_name = $1
ORDER BY f.path, s.start_line`, symbolSelectCols, schema, schema), name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		s, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SymbolContext returns symbolID's own row plus the source text of its
// chunk, if one was indexed for it (§6 symbol_context).
func (r *Retriever) SymbolContext(ctx context.Context, repo *store.RepoEntry, symbolID string) (*Symbol, string, error) {
	schema := quoteSchema(repo.SchemaName)
	row := r.store.Pool().QueryRow(ctx, fmt.Sprintf(`
SELECT %s FROM %s.symbol s JOIN %s.file f ON f.id = s.file_id WHERE s.id = $1`, symbolSelectCols, schema, schema), symbolID)
	s, err := scanSymbol(row)
	if err != nil {
		return nil, "", err
	}

	var content string
	contentRow := r.store.Pool().QueryRow(ctx, fmt.Sprintf(`
SELECT content FROM %s.chunk WHERE symbol_id = $1 ORDER BY start_line LIMIT 1`, schema), symbolID)
	_ = contentRow.Scan(&content) // no chunk for this symbol is not an error

	return &s, content, nil
}

// Callers returns every edge whose to_symbol_id is symbolID, resolved to
// the calling symbol's own row (§6 callers).
func (r *Retriever) Callers(ctx context.Context, repo *store.RepoEntry, symbolID string) ([]Edge, error) {
	return r.edgesByDirection(ctx, repo, symbolID, "to_symbol_id", "from_symbol_id")
}

// Callees returns every edge whose from_symbol_id is symbolID, resolved to
// the called symbol's own row (§6 callees).
func (r *Retriever) Callees(ctx context.Context, repo *store.RepoEntry, symbolID string) ([]Edge, error) {
	return r.edgesByDirection(ctx, repo, symbolID, "from_symbol_id", "to_symbol_id")
}

func (r *Retriever) edgesByDirection(ctx context.Context, repo *store.RepoEntry, symbolID, anchorCol, resolveCol string) ([]Edge, error) {
	schema := quoteSchema(repo.SchemaName)
	query := fmt.Sprintf(`
SELECT %s, e.edge_type, ef.path, e.evidence_line
FROM %s.edge e
JOIN %s.symbol s ON s.id = e.%s
JOIN %s.file f ON f.id = s.file_id
JOIN %s.file ef ON ef.id = e.evidence_file_id
WHERE e.%s = $1
ORDER BY ef.path, e.evidence_line`, symbolSelectCols, schema, schema, resolveCol, schema, schema, anchorCol)

	rows, err := r.store.Pool().Query(ctx, query, symbolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.Symbol.ID, &e.Symbol.Path, &e.Symbol.FQN, &e.Symbol.SimpleName, &e.Symbol.Kind,
			&e.Symbol.StartLine, &e.Symbol.EndLine, &e.Symbol.Signature, &e.Symbol.Language, &e.Symbol.Complexity,
			&e.EdgeType, &e.EvidenceFile, &e.EvidenceLine); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
