package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ckb/internal/store"
)

// SyncResult is the outcome of one DOCS_SCAN run against a repo schema.
type SyncResult struct {
	DocsScanned int
}

// SyncToSchema walks repoRoot with a Scanner and upserts the resulting
// documents into schemaName's document table (§4.7 DOCS_SCAN). Symbol
// resolution and staleness detection run separately, on demand, through
// Resolver — this is purely the scan-and-store half of the pipeline.
func SyncToSchema(ctx context.Context, st *store.Store, repoRoot, schemaName string, exclude []string) (*SyncResult, error) {
	scanner := NewScanner(repoRoot)
	results, err := scanner.ScanDirectory(repoRoot, exclude)
	if err != nil {
		return nil, fmt.Errorf("scan directory: %w", err)
	}

	schema := pgx.Identifier{schemaName}.Sanitize()
	scanned := 0
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(repoRoot, r.Doc.Path))
		if err != nil {
			continue
		}
		if _, err := st.Pool().Exec(ctx, fmt.Sprintf(`
INSERT INTO %s.document (id, path, doc_type, title, content)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (path) DO UPDATE SET doc_type = EXCLUDED.doc_type, title = EXCLUDED.title, content = EXCLUDED.content`, schema),
			uuid.New(), r.Doc.Path, string(r.Doc.Type), r.Doc.Title, string(content)); err != nil {
			return nil, fmt.Errorf("upsert document %s: %w", r.Doc.Path, err)
		}
		scanned++
	}
	return &SyncResult{DocsScanned: scanned}, nil
}
