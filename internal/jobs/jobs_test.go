package jobs

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJobIsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{Pending, false},
		{Claimed, false},
		{Done, true},
		{Failed, true},
		{Cancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := &Job{Status: tt.status}
			if got := job.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestJobCanCancel(t *testing.T) {
	tests := []struct {
		status    Status
		canCancel bool
	}{
		{Pending, true},
		{Claimed, true},
		{Done, false},
		{Failed, false},
		{Cancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := &Job{Status: tt.status}
			if got := job.CanCancel(); got != tt.canCancel {
				t.Errorf("CanCancel() = %v, want %v", got, tt.canCancel)
			}
		})
	}
}

func TestJobDuration(t *testing.T) {
	t.Run("not started", func(t *testing.T) {
		job := &Job{}
		if d := job.Duration(); d != 0 {
			t.Errorf("Duration() = %v, want 0", d)
		}
	})

	t.Run("running", func(t *testing.T) {
		now := time.Now().UTC()
		past := now.Add(-5 * time.Second)
		job := &Job{StartedAt: &past}
		d := job.Duration()
		if d < 5*time.Second {
			t.Errorf("Duration() = %v, want >= 5s", d)
		}
	})

	t.Run("completed", func(t *testing.T) {
		start := time.Now().UTC().Add(-10 * time.Second)
		end := time.Now().UTC().Add(-5 * time.Second)
		job := &Job{StartedAt: &start, CompletedAt: &end}
		d := job.Duration()
		expected := 5 * time.Second
		if d < expected-time.Millisecond || d > expected+time.Millisecond {
			t.Errorf("Duration() = %v, want ~%v", d, expected)
		}
	})
}

func TestJobToSummary(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()
	job := &Job{
		ID:        id,
		RepoName:  "demo",
		JobType:   FullIndex,
		Status:    Done,
		Priority:  10,
		CreatedAt: now,
	}

	summary := job.ToSummary()

	if summary.ID != id {
		t.Errorf("ID = %v, want %v", summary.ID, id)
	}
	if summary.JobType != FullIndex {
		t.Errorf("JobType = %v, want %v", summary.JobType, FullIndex)
	}
	if summary.Status != Done {
		t.Errorf("Status = %v, want %v", summary.Status, Done)
	}
}

func TestJobStatusConstants(t *testing.T) {
	statuses := []Status{Pending, Claimed, Done, Failed, Cancelled}
	for _, s := range statuses {
		if string(s) == "" {
			t.Errorf("Status %v should not be empty", s)
		}
	}
}

func TestTypeRegistryCoversAllTypes(t *testing.T) {
	types := []Type{
		FullIndex, ReindexFile, ReindexMany,
		EmbedMissing, EmbedChunk, EmbedSummaries,
		DocsScan, TagRulesSync,
		SummarizeMissing, SummarizeFiles, SummarizeSymbols,
		RegenerateSummary,
	}
	for _, typ := range types {
		info, ok := TypeRegistry[typ]
		if !ok {
			t.Errorf("TypeRegistry missing entry for %v", typ)
			continue
		}
		if !info.RunsInRepoSchema {
			t.Errorf("%v expected to run in repo schema", typ)
		}
	}
}

func TestTypeRegistryPriorityOrdering(t *testing.T) {
	// Priorities must decrease as the dependency chain deepens (§4.6.3).
	if TypeRegistry[FullIndex].DefaultPriority <= TypeRegistry[DocsScan].DefaultPriority {
		t.Error("FULL_INDEX priority should exceed DOCS_SCAN priority")
	}
	if TypeRegistry[DocsScan].DefaultPriority <= TypeRegistry[TagRulesSync].DefaultPriority {
		t.Error("DOCS_SCAN priority should exceed TAG_RULES_SYNC priority")
	}
	if TypeRegistry[TagRulesSync].DefaultPriority <= TypeRegistry[EmbedMissing].DefaultPriority {
		t.Error("TAG_RULES_SYNC priority should exceed EMBED_MISSING priority")
	}
	if TypeRegistry[EmbedMissing].DefaultPriority <= TypeRegistry[SummarizeFiles].DefaultPriority {
		t.Error("EMBED_MISSING priority should exceed SUMMARIZE_FILES priority")
	}
	if TypeRegistry[SummarizeFiles].DefaultPriority <= TypeRegistry[EmbedSummaries].DefaultPriority {
		t.Error("SUMMARIZE_FILES priority should exceed EMBED_SUMMARIES priority")
	}
	if TypeRegistry[EmbedSummaries].DefaultPriority <= TypeRegistry[RegenerateSummary].DefaultPriority {
		t.Error("EMBED_SUMMARIES priority should exceed REGENERATE_SUMMARY priority")
	}
}

func TestListOptions(t *testing.T) {
	opts := ListOptions{
		Status: []Status{Pending, Claimed},
		Limit:  10,
		Offset: 20,
	}

	if len(opts.Status) != 2 {
		t.Errorf("Status len = %d, want 2", len(opts.Status))
	}
	if opts.Limit != 10 {
		t.Errorf("Limit = %d, want 10", opts.Limit)
	}
}

func TestListResponse(t *testing.T) {
	resp := ListResponse{
		Jobs: []Summary{
			{ID: uuid.New(), Status: Pending},
			{ID: uuid.New(), Status: Claimed},
		},
		TotalCount: 100,
	}

	if len(resp.Jobs) != 2 {
		t.Errorf("Jobs len = %d, want 2", len(resp.Jobs))
	}
	if resp.TotalCount != 100 {
		t.Errorf("TotalCount = %d, want 100", resp.TotalCount)
	}
}
