package indexer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ckb/internal/parser"
)

// upsertFile performs the per-file upsert transaction described in §4.3
// step 5: delete the File's existing Symbols/Chunks/Edges (ON DELETE
// CASCADE via the File delete), insert the new File row, then its Symbols,
// Chunks, and Edges (with to_symbol_id left NULL — resolved in the
// second pass).
func (ix *Indexer) upsertFile(ctx context.Context, schemaName string, fr *parser.FileResult) error {
	tx, err := ix.store.Pool().Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	schema := quoteSchema(schemaName)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s.file WHERE path = $1`, schema), fr.Path); err != nil {
		return err
	}

	fileID := uuid.New()
	if _, err := tx.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s.file (id, path, language, sha, size) VALUES ($1, $2, $3, $4, $5)`, schema),
		fileID, fr.Path, string(fr.Language), fr.Sha, fr.Size); err != nil {
		return err
	}

	for _, sym := range fr.Symbols {
		var fqn interface{}
		if sym.FQN != "" {
			fqn = sym.FQN
		}
		var complexity interface{}
		if sym.Complexity > 0 {
			complexity = sym.Complexity
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`INSERT INTO %s.symbol (id, file_id, fqn, simple_name, kind, start_line, end_line, signature, language, complexity)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			 ON CONFLICT (id) DO UPDATE SET fqn = EXCLUDED.fqn, simple_name = EXCLUDED.simple_name,
			   kind = EXCLUDED.kind, start_line = EXCLUDED.start_line, end_line = EXCLUDED.end_line,
			   signature = EXCLUDED.signature, complexity = EXCLUDED.complexity`, schema),
			sym.ID, fileID, fqn, sym.SimpleName, string(sym.Kind), sym.StartLine, sym.EndLine,
			sym.Signature, string(sym.Language), complexity); err != nil {
			return err
		}
	}

	for _, chunk := range fr.Chunks {
		var symbolID interface{}
		if chunk.SymbolID != uuid.Nil {
			symbolID = chunk.SymbolID
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`INSERT INTO %s.chunk (id, file_id, symbol_id, start_line, end_line, content, content_hash, language, kind)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			 ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, content_hash = EXCLUDED.content_hash,
			   start_line = EXCLUDED.start_line, end_line = EXCLUDED.end_line`, schema),
			chunk.ID, fileID, symbolID, chunk.StartLine, chunk.EndLine, chunk.Content, chunk.ContentHash,
			string(chunk.Language), string(chunk.Kind)); err != nil {
			return err
		}
	}

	for _, edge := range fr.Edges {
		// IMPORTS edges are file-level and carry no enclosing symbol;
		// from_symbol_id stays NULL and evidence_file_id is the attribution.
		var from interface{}
		if edge.FromSymbolID != uuid.Nil {
			from = edge.FromSymbolID
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`INSERT INTO %s.edge (id, from_symbol_id, to_symbol_id, to_name, edge_type, evidence_file_id, evidence_line)
			 VALUES ($1,$2,NULL,$3,$4,$5,$6)`, schema),
			uuid.New(), from, edge.ToName, string(edge.Type), fileID, edge.EvidenceLine); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// deleteFile removes a File and its cascaded rows (reindex_file DELETE op).
func (ix *Indexer) deleteFile(ctx context.Context, schemaName, path string) error {
	_, err := ix.store.Pool().Exec(ctx, fmt.Sprintf(`DELETE FROM %s.file WHERE path = $1`, quoteSchema(schemaName)), path)
	return err
}
