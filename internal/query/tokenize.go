package query

import "strings"

// stopWords are dropped before building an OR-tsquery; they carry no
// discriminative signal and only dilute the ranking.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "how": true, "in": true,
	"is": true, "it": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "to": true, "was": true, "what": true, "when": true,
	"where": true, "which": true, "with": true,
}

// tsqueryTokens splits a natural-language query into the non-trivial tokens
// used to build an OR-joined to_tsquery (§4.5 step 3).
func tsqueryTokens(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})

	tokens := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		tok := strings.ToLower(f)
		if len(tok) < 2 || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}

// buildOrTsquery builds a to_tsquery expression OR-joining every token
// (critical: the default web-search tsquery ANDs terms, which empirically
// starves multi-word natural-language queries of results, §4.5 step 3).
func buildOrTsquery(tokens []string) string {
	escaped := make([]string, len(tokens))
	for i, t := range tokens {
		escaped[i] = strings.ReplaceAll(t, "'", "''") + ":*"
	}
	return strings.Join(escaped, " | ")
}
