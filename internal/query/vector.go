package query

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// vectorHit is one row returned by a vector-candidate query (§4.5 step 2).
type vectorHit struct {
	entityID  string
	path      string
	content   string
	language  string
	startLine int
	endLine   int
	symbolID  string // empty for the header chunk and for documents
	vecScore  float64 // 1 - cosine distance, in [0,1] before normalization
}

// vectorCandidates runs the nearest-neighbor query against table's paired
// embedding table, ordered by cosine distance ascending (§4.5 step 2):
//
//	SELECT entity, 1 - (embedding <=> :q) AS vec_score … ORDER BY embedding <=> :q LIMIT K_v
func (r *Retriever) vectorCandidates(ctx context.Context, schemaName string, kind EntityKind, qvec []float32) ([]vectorHit, error) {
	schema := quoteSchema(schemaName)
	vec := pgvector.NewVector(qvec)

	var query string
	switch kind {
	case EntityDocument:
		query = fmt.Sprintf(`
SELECT d.id, d.path, d.content, '', 0, 0, '', 1 - (e.embedding <=> $1) AS vec_score
FROM %[1]s.document_embedding e
JOIN %[1]s.document d ON d.id = e.entity_id
ORDER BY e.embedding <=> $1
LIMIT %[2]d`, schema, candidateLimit)
	default:
		query = fmt.Sprintf(`
SELECT c.id, f.path, c.content, c.language, c.start_line, c.end_line, coalesce(c.symbol_id::text, ''), 1 - (e.embedding <=> $1) AS vec_score
FROM %[1]s.chunk_embedding e
JOIN %[1]s.chunk c ON c.id = e.entity_id
JOIN %[1]s.file f ON f.id = c.file_id
ORDER BY e.embedding <=> $1
LIMIT %[2]d`, schema, candidateLimit)
	}

	rows, err := r.store.Pool().Query(ctx, query, vec)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []vectorHit
	for rows.Next() {
		var h vectorHit
		if err := rows.Scan(&h.entityID, &h.path, &h.content, &h.language, &h.startLine, &h.endLine, &h.symbolID, &h.vecScore); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
