package query

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// symbolGraph holds the in/out degree of every resolved edge (any edge
// type) in one repo's schema,
// loaded fresh per retrieval call — repos are small enough that this is
// cheaper than maintaining an incremental graph alongside the indexer.
type symbolGraph struct {
	outDegree map[string]int
	inDegree  map[string]int
}

// buildSymbolGraph loads the edge table's degree counts for the symbol
// graph assist (§4.5 "Symbol-graph assist": boost candidates whose symbol
// is heavily referenced elsewhere in the repo).
func buildSymbolGraph(ctx context.Context, pool *pgxpool.Pool, schemaName string) (*symbolGraph, error) {
	schema := quoteSchema(schemaName)
	rows, err := pool.Query(ctx, fmt.Sprintf(`
SELECT from_symbol_id, to_symbol_id FROM %s.edge WHERE to_symbol_id IS NOT NULL`, schema))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	g := &symbolGraph{outDegree: make(map[string]int), inDegree: make(map[string]int)}
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, err
		}
		g.outDegree[from]++
		g.inDegree[to]++
	}
	return g, rows.Err()
}

// graphAssistMaxBoost caps the graph-assist contribution so it can never
// dominate the vector/FTS signal on its own (folded into tag_boost's 0.10
// weight alongside matched tags, §4.5 step 5).
const graphAssistMaxBoost = 0.5

// graphAssistBoosts scores every candidate with a resolved symbol by its
// in-degree (how many other symbols call/reference it) relative to the
// highest in-degree among the candidate set, so a heavily-referenced helper
// ranks above an equally-matched but isolated one.
func graphAssistBoosts(ctx context.Context, g *symbolGraph, merged map[string]*candidate) map[string]float64 {
	boosts := make(map[string]float64, len(merged))
	if g == nil {
		return boosts
	}

	maxIn := 0
	for _, c := range merged {
		if c.symbolID == "" {
			continue
		}
		if d := g.inDegree[c.symbolID]; d > maxIn {
			maxIn = d
		}
	}
	if maxIn == 0 {
		return boosts
	}

	for id, c := range merged {
		if c.symbolID == "" {
			continue
		}
		d := g.inDegree[c.symbolID]
		if d == 0 {
			continue
		}
		boosts[id] = graphAssistMaxBoost * float64(d) / float64(maxIn)
	}
	return boosts
}
