// Package hashing provides content-hash and schema-name derivation helpers
// shared by the indexer, embedder, and schema manager.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ContentHash returns the chunk.content_hash used as the embedding dedup key:
// SHA-256 of the content, truncated to a fixed 16-hex-char prefix (§4.2).
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:16]
}

var schemaUnsafe = regexp.MustCompile(`[^a-z0-9_]+`)

// SchemaName derives a deterministic, collision-resistant Postgres schema
// identifier from a prefix and a repo name. Names are lowercased and
// non-alphanumeric runs are collapsed to underscores; a short blake2b
// suffix keeps two different repo names that sanitize to the same stem
// (e.g. "My-Repo" and "my_repo") from colliding.
func SchemaName(prefix, repoName string) string {
	sanitized := schemaUnsafe.ReplaceAllString(strings.ToLower(repoName), "_")
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "repo"
	}

	sum := blake2b.Sum256([]byte(repoName))
	suffix := hex.EncodeToString(sum[:])[:6]

	return prefix + sanitized + "_" + suffix
}
