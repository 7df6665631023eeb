package query

import (
	"context"
	"fmt"
)

// ftsHit is one row returned by an FTS-candidate query (§4.5 step 3).
type ftsHit struct {
	entityID  string
	path      string
	content   string
	language  string
	startLine int
	endLine   int
	symbolID  string
	ftsScore  float64 // ts_rank_cd, unbounded, normalized later against the candidate set
}

// ftsCandidates runs the lexical query against table's generated tsvector
// column, using an OR-joined to_tsquery rather than Postgres's default
// web-search AND semantics (§4.5 step 3):
//
//	ORDER BY ts_rank_cd(fts, q) DESC LIMIT K_f
//
// An empty token list (e.g. a query of only stop words) yields no candidates
// rather than matching every row.
func (r *Retriever) ftsCandidates(ctx context.Context, schemaName string, kind EntityKind, queryText string) ([]ftsHit, error) {
	tokens := tsqueryTokens(queryText)
	if len(tokens) == 0 {
		return nil, nil
	}
	tsq := buildOrTsquery(tokens)
	schema := quoteSchema(schemaName)

	var query string
	switch kind {
	case EntityDocument:
		query = fmt.Sprintf(`
SELECT d.id, d.path, d.content, '', 0, 0, '', ts_rank_cd(d.fts, q) AS fts_score
FROM %[1]s.document d, to_tsquery('simple', $1) q
WHERE d.fts @@ q
ORDER BY fts_score DESC
LIMIT %[2]d`, schema, candidateLimit)
	default:
		query = fmt.Sprintf(`
SELECT c.id, f.path, c.content, c.language, c.start_line, c.end_line, coalesce(c.symbol_id::text, ''), ts_rank_cd(c.fts, q) AS fts_score
FROM %[1]s.chunk c
JOIN %[1]s.file f ON f.id = c.file_id, to_tsquery('simple', $1) q
WHERE c.fts @@ q
ORDER BY fts_score DESC
LIMIT %[2]d`, schema, candidateLimit)
	}

	rows, err := r.store.Pool().Query(ctx, query, tsq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []ftsHit
	for rows.Next() {
		var h ftsHit
		if err := rows.Scan(&h.entityID, &h.path, &h.content, &h.language, &h.startLine, &h.endLine, &h.symbolID, &h.ftsScore); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
