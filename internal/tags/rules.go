// Package tags implements rule-based auto-tagging of files (§4.7
// TAG_RULES_SYNC): a small set of path-glob rules assigns tags to files
// without requiring a human or an LLM in the loop, grounded on the same
// glob-matching idiom the teacher uses for CODEOWNERS path matching.
package tags

import (
	"path"
	"strings"
)

// Rule maps a path glob to a tag name. Patterns are matched against the
// file's repo-relative, slash-normalized path with path.Match, plus a
// "**"-as-any-depth extension the stdlib glob doesn't support natively.
type Rule struct {
	Pattern string
	Tag     string
}

// DefaultRules are the built-in classification rules (§4.7 "source tagging
// without a human or LLM in the loop"); repos may extend these via
// RepoEntry.Config["tagRules"] (handled by the caller, not this package).
var DefaultRules = []Rule{
	{Pattern: "**/*_test.go", Tag: "test"},
	{Pattern: "**/*.test.ts", Tag: "test"},
	{Pattern: "**/*.spec.ts", Tag: "test"},
	{Pattern: "**/test/**", Tag: "test"},
	{Pattern: "**/tests/**", Tag: "test"},
	{Pattern: "**/migrations/**", Tag: "migration"},
	{Pattern: "**/vendor/**", Tag: "vendored"},
	{Pattern: "**/node_modules/**", Tag: "vendored"},
	{Pattern: "**/*.generated.go", Tag: "generated"},
	{Pattern: "**/*.pb.go", Tag: "generated"},
	{Pattern: "**/internal/**", Tag: "internal"},
	{Pattern: "**/cmd/**", Tag: "entrypoint"},
}

// Match returns every tag whose rule matches filePath, in rule order,
// deduplicated.
func Match(rules []Rule, filePath string) []string {
	filePath = path.Clean(strings.ReplaceAll(filePath, "\\", "/"))
	seen := make(map[string]bool)
	var out []string
	for _, r := range rules {
		if matchGlob(r.Pattern, filePath) && !seen[r.Tag] {
			seen[r.Tag] = true
			out = append(out, r.Tag)
		}
	}
	return out
}

// matchGlob extends path.Match with "**" meaning "zero or more path
// segments", by splitting on "**/" and requiring the remaining glob to
// match some suffix of the path.
func matchGlob(pattern, filePath string) bool {
	if !strings.Contains(pattern, "**") {
		ok, _ := path.Match(pattern, filePath)
		return ok
	}

	parts := strings.SplitN(pattern, "**/", 2)
	if len(parts) != 2 {
		// "**" not followed by "/": fall back to a substring-style match on
		// the trailing glob.
		suffix := strings.TrimPrefix(pattern, "**")
		ok, _ := path.Match(strings.TrimPrefix(suffix, "/"), path.Base(filePath))
		return ok
	}
	prefix, rest := parts[0], parts[1]
	if prefix != "" && !strings.HasPrefix(filePath, prefix) {
		return false
	}
	dirRest, anyDepth := strings.CutSuffix(rest, "/**")
	segments := strings.Split(filePath, "/")
	for i := range segments {
		if anyDepth {
			// A trailing "/**" means dirRest must match a run of directory
			// segments followed by at least one more segment.
			for j := i + 1; j < len(segments); j++ {
				if ok, _ := path.Match(dirRest, strings.Join(segments[i:j], "/")); ok {
					return true
				}
			}
			continue
		}
		candidate := strings.Join(segments[i:], "/")
		if ok, _ := path.Match(rest, candidate); ok {
			return true
		}
	}
	return false
}
