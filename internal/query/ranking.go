package query

import "sort"

// candidate is the union of a vector hit and an fts hit sharing one entity
// id, accumulated while merging the two retrieval paths (§4.5 step 5).
type candidate struct {
	entityID  string
	path      string
	content   string
	language  string
	startLine int
	endLine   int
	symbolID  string

	hasVec   bool
	vecScore float64
	hasFTS   bool
	ftsScore float64

	matchedTags []string
	graphBoost  float64
}

// mergeCandidates unions vector and FTS hits keyed by entity id (§4.5 step
// 5: "Union candidates keyed by chunk id").
func mergeCandidates(vecHits []vectorHit, ftsHits []ftsHit) map[string]*candidate {
	merged := make(map[string]*candidate, len(vecHits)+len(ftsHits))

	for _, h := range vecHits {
		merged[h.entityID] = &candidate{
			entityID: h.entityID, path: h.path, content: h.content,
			language: h.language, startLine: h.startLine, endLine: h.endLine,
			symbolID: h.symbolID, hasVec: true, vecScore: h.vecScore,
		}
	}
	for _, h := range ftsHits {
		c, ok := merged[h.entityID]
		if !ok {
			c = &candidate{
				entityID: h.entityID, path: h.path, content: h.content,
				language: h.language, startLine: h.startLine, endLine: h.endLine,
				symbolID: h.symbolID,
			}
			merged[h.entityID] = c
		}
		c.hasFTS = true
		c.ftsScore = h.ftsScore
	}
	return merged
}

// normalizeSlice normalizes values to [0, 1] using min-max normalization.
// When every value is equal (zero spread), every value maps to 0.5 rather
// than being left undefined (§4.5 step 5).
func normalizeSlice(values []float64) {
	if len(values) == 0 {
		return
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	if maxVal == minVal {
		for i := range values {
			values[i] = 0.5
		}
		return
	}

	for i := range values {
		values[i] = (values[i] - minVal) / (maxVal - minVal)
	}
}

// fusionWeights are the spec's fixed retrieval weights (§4.5 step 5); unlike
// the teacher's tunable FusionWeights, these are not configurable.
const (
	weightVec = 0.55
	weightFTS = 0.35
	weightTag = 0.10
)

// rankCandidates normalizes vec/fts scores across the full candidate set,
// blends in tag and (optional) graph-assist boosts, computes final_score,
// and returns results sorted descending (§4.5 steps 5-6).
func rankCandidates(merged map[string]*candidate) []Result {
	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	// Deterministic base ordering before any score-based sort, so ties are
	// stable across runs.
	sort.Strings(ids)

	vecScores := make([]float64, len(ids))
	ftsScores := make([]float64, len(ids))
	for i, id := range ids {
		vecScores[i] = merged[id].vecScore
		ftsScores[i] = merged[id].ftsScore
	}
	normalizeSlice(vecScores)
	normalizeSlice(ftsScores)

	vecRanks := rankIndex(ids, func(id string) float64 { return merged[id].vecScore }, func(id string) bool { return merged[id].hasVec })
	ftsRanks := rankIndex(ids, func(id string) float64 { return merged[id].ftsScore }, func(id string) bool { return merged[id].hasFTS })

	results := make([]Result, len(ids))
	for i, id := range ids {
		c := merged[id]

		tagBoost := tagBoostFor(c.matchedTags) + c.graphBoost
		if tagBoost > 1.0 {
			tagBoost = 1.0
		}

		var normVec, normFTS float64
		if c.hasVec {
			normVec = vecScores[i]
		}
		if c.hasFTS {
			normFTS = ftsScores[i]
		}

		final := weightVec*normVec + weightFTS*normFTS + weightTag*tagBoost

		results[i] = Result{
			EntityID:    c.entityID,
			Path:        c.path,
			Content:     c.content,
			Language:    c.language,
			StartLine:   c.startLine,
			EndLine:     c.endLine,
			MatchedTags: c.matchedTags,
			VecRank:     vecRanks[id],
			VecScore:    c.vecScore,
			FTSRank:     ftsRanks[id],
			FTSScore:    c.ftsScore,
			TagBoost:    tagBoost,
			FinalScore:  final,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})

	return results
}

// rankIndex returns each present id's 1-based rank within its own score,
// descending; absent ids (present == false) get rank 0.
func rankIndex(ids []string, score func(string) float64, present func(string) bool) map[string]int {
	type scored struct {
		id string
		s  float64
	}
	var ranked []scored
	for _, id := range ids {
		if present(id) {
			ranked = append(ranked, scored{id, score(id)})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].s > ranked[j].s })

	out := make(map[string]int, len(ids))
	for i, r := range ranked {
		out[r.id] = i + 1
	}
	return out
}
