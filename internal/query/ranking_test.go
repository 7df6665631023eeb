package query

import "testing"

func TestNormalizeSliceMinMax(t *testing.T) {
	values := []float64{1, 2, 4}
	normalizeSlice(values)
	want := []float64{0, 1.0 / 3.0, 1}
	for i := range values {
		if diff := values[i] - want[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("values[%d] = %v, want %v", i, values[i], want[i])
		}
	}
}

func TestNormalizeSliceConstantFallsBackToHalf(t *testing.T) {
	values := []float64{3, 3, 3}
	normalizeSlice(values)
	for i, v := range values {
		if v != 0.5 {
			t.Errorf("values[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestMergeCandidatesUnionsByEntityID(t *testing.T) {
	vec := []vectorHit{{entityID: "a", vecScore: 0.9}, {entityID: "b", vecScore: 0.2}}
	fts := []ftsHit{{entityID: "b", ftsScore: 5}, {entityID: "c", ftsScore: 1}}

	merged := mergeCandidates(vec, fts)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged candidates, got %d", len(merged))
	}
	if !merged["a"].hasVec || merged["a"].hasFTS {
		t.Errorf("a should be vector-only")
	}
	if !merged["b"].hasVec || !merged["b"].hasFTS {
		t.Errorf("b should have both signals")
	}
	if merged["b"].ftsScore != 5 {
		t.Errorf("b fts score = %v, want 5", merged["b"].ftsScore)
	}
	if merged["c"].hasVec || !merged["c"].hasFTS {
		t.Errorf("c should be fts-only")
	}
}

func TestRankCandidatesAppliesFixedWeights(t *testing.T) {
	merged := map[string]*candidate{
		"top":    {entityID: "top", hasVec: true, vecScore: 1.0, hasFTS: true, ftsScore: 1.0},
		"bottom": {entityID: "bottom", hasVec: true, vecScore: 0.0, hasFTS: true, ftsScore: 0.0},
	}
	results := rankCandidates(merged)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].EntityID != "top" {
		t.Errorf("expected top-scoring candidate first, got %s", results[0].EntityID)
	}
	if results[0].FinalScore <= results[1].FinalScore {
		t.Errorf("expected descending final scores, got %v then %v", results[0].FinalScore, results[1].FinalScore)
	}
	// top normalizes to 1.0 on both signals: 0.55 + 0.35 + 0 tag boost.
	if diff := results[0].FinalScore - 0.90; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("top FinalScore = %v, want 0.90", results[0].FinalScore)
	}
}

func TestRankCandidatesTagBoostContribution(t *testing.T) {
	merged := map[string]*candidate{
		"tagged":   {entityID: "tagged", hasVec: true, vecScore: 0.5, hasFTS: true, ftsScore: 0.5, matchedTags: []string{"auth", "hot"}},
		"untagged": {entityID: "untagged", hasVec: true, vecScore: 0.5, hasFTS: true, ftsScore: 0.5},
	}
	results := rankCandidates(merged)

	var tagged, untagged Result
	for _, r := range results {
		if r.EntityID == "tagged" {
			tagged = r
		} else {
			untagged = r
		}
	}
	if tagged.FinalScore <= untagged.FinalScore {
		t.Errorf("tagged candidate should outrank untagged: %v vs %v", tagged.FinalScore, untagged.FinalScore)
	}
	if diff := tagged.FinalScore - untagged.FinalScore - 0.05; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("tag boost delta = %v, want 0.05 (2 tags * 0.25 * 0.10 weight)", tagged.FinalScore-untagged.FinalScore)
	}
}

func TestRankIndexRanksOnlyPresentCandidates(t *testing.T) {
	ids := []string{"a", "b", "c"}
	scores := map[string]float64{"a": 0.1, "c": 0.9}
	present := map[string]bool{"a": true, "c": true}

	ranks := rankIndex(ids, func(id string) float64 { return scores[id] }, func(id string) bool { return present[id] })
	if ranks["b"] != 0 {
		t.Errorf("absent candidate should rank 0, got %d", ranks["b"])
	}
	if ranks["c"] != 1 {
		t.Errorf("highest-scoring candidate should rank 1, got %d", ranks["c"])
	}
	if ranks["a"] != 2 {
		t.Errorf("lower-scoring candidate should rank 2, got %d", ranks["a"])
	}
}
