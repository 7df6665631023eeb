package store

import (
	"context"
	"sort"
	"strings"

	"ckb/internal/errors"
)

const fuzzyThreshold = 0.6

// ResolveWithSuggestions resolves a repo name; on failure it computes fuzzy
// candidates against every registered name using normalized edit-similarity
// and attaches the top 3 above the 0.6 threshold to the returned error (§4.1).
func (s *Store) ResolveWithSuggestions(ctx context.Context, repoLike string) (*RepoEntry, error) {
	entry, err := s.Get(ctx, repoLike)
	if err == nil {
		return entry, nil
	}

	all, listErr := s.List(ctx)
	if listErr != nil {
		return nil, err
	}

	suggestions := rankSuggestions(repoLike, all)

	ckbErr := errors.NewRepoNotFound(repoLike)
	hint := "no similarly-named repo found; run `ckb repo list`"
	if len(suggestions) > 0 {
		hint = "did you mean one of the suggested repos?"
	}
	return nil, ckbErr.WithSuggestions(hint, suggestions)
}

func rankSuggestions(query string, candidates []RepoEntry) []errors.RepoSuggestion {
	type scored struct {
		name string
		sim  float64
		last string
	}

	scoredList := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		sim := editSimilarity(query, c.Name)
		if sim >= fuzzyThreshold {
			last := ""
			scoredList = append(scoredList, scored{name: c.Name, sim: sim, last: last})
		}
	}

	sort.Slice(scoredList, func(i, j int) bool { return scoredList[i].sim > scoredList[j].sim })

	if len(scoredList) > 3 {
		scoredList = scoredList[:3]
	}

	out := make([]errors.RepoSuggestion, 0, len(scoredList))
	for _, s := range scoredList {
		out = append(out, errors.RepoSuggestion{Name: s.name, Similarity: s.sim})
	}
	return out
}

// editSimilarity returns a normalized similarity in [0,1] derived from the
// Levenshtein edit distance between a and b, case-insensitive.
func editSimilarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}

	dist := levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(dist)/float64(maxLen)
}

// levenshtein computes classic edit distance with a two-row DP table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
