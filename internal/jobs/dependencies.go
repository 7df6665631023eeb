package jobs

import "context"

// Follower describes a job type conditionally enqueued after a predecessor
// reaches DONE, and the repo flag (if any) that gates it.
type Follower struct {
	Type     Type
	FlagGate string // RepoEntry flag name that must be true, or "" for unconditional
}

// DependencyGraph is the declarative table from §4.6.3: completion of a job
// conditionally enqueues its followers. Kept as data, not code, so adding a
// job type never requires touching the worker.
var DependencyGraph = map[Type][]Follower{
	FullIndex: {
		{Type: DocsScan, FlagGate: ""},
		{Type: EmbedMissing, FlagGate: "auto_embed"},
		{Type: RegenerateSummary, FlagGate: "auto_summaries"},
	},
	DocsScan: {
		{Type: SummarizeFiles, FlagGate: "auto_summaries"},
		{Type: SummarizeSymbols, FlagGate: "auto_summaries"},
	},
	SummarizeFiles:   {{Type: EmbedSummaries, FlagGate: "auto_summaries"}},
	SummarizeSymbols: {{Type: EmbedSummaries, FlagGate: "auto_summaries"}},
}

// RepoFlags is the subset of a Repo Registration's boolean flags the
// dependency graph gates on.
type RepoFlags struct {
	AutoEmbed     bool
	AutoSummaries bool
}

func (f RepoFlags) allows(gate string) bool {
	switch gate {
	case "":
		return true
	case "auto_embed":
		return f.AutoEmbed
	case "auto_summaries":
		return f.AutoSummaries
	default:
		return false
	}
}

// EnqueueFollowers enqueues every follower of completedType whose flag gate
// is satisfied by flags, deduplicated per repo+type via DedupKey.
func EnqueueFollowers(ctx context.Context, store *Store, repoName, schemaName string, completedType Type, flags RepoFlags) ([]Type, error) {
	followers := DependencyGraph[completedType]
	var enqueued []Type

	for _, f := range followers {
		if !flags.allows(f.FlagGate) {
			continue
		}
		dedupKey := repoName + ":" + string(f.Type)
		if _, err := store.Enqueue(ctx, repoName, schemaName, f.Type, nil, EnqueueOptions{
			Priority: TypeRegistry[f.Type].DefaultPriority,
			DedupKey: dedupKey,
		}); err != nil {
			return enqueued, err
		}
		enqueued = append(enqueued, f.Type)
	}

	return enqueued, nil
}
