package indexer

// ChangeType describes how a file differs from the indexed state.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// FileChange is one file the Indexer needs to act on.
type FileChange struct {
	Path       string
	ChangeType ChangeType
}

// Config controls indexer behavior.
type Config struct {
	// IncrementalThreshold is the number of changed files past which
	// the Indexer escalates to a full_index instead of many reindex_file
	// calls (§4.3 "Incremental detection").
	IncrementalThreshold int
	// ExtraExcludes are glob patterns applied in addition to .gitignore.
	ExtraExcludes []string
}

// DefaultConfig returns the spec's stated default.
func DefaultConfig() Config {
	return Config{IncrementalThreshold: 50}
}
