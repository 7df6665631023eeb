package main

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"ckb/internal/health"
	"ckb/internal/jobs"
	"ckb/internal/query"
)

func TestFormatResponse_JSON(t *testing.T) {
	resp := map[string]interface{}{
		"key": "value",
		"num": 42,
	}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result, `"key": "value"`) {
		t.Error("JSON output missing expected key")
	}
	if !strings.Contains(result, `"num": 42`) {
		t.Error("JSON output missing expected number")
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	resp := map[string]string{"key": "value"}

	_, err := FormatResponse(resp, "xml")
	if err == nil {
		t.Error("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestFormatJSON(t *testing.T) {
	resp := struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}{
		Name:  "test",
		Value: 123,
	}

	result, err := formatJSON(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result, `"name": "test"`) {
		t.Error("missing name field")
	}
	if !strings.Contains(result, `"value": 123`) {
		t.Error("missing value field")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1073741824, "1.0 GiB"},
		{1099511627776, "1.0 TiB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := formatBytes(tt.bytes)
			if result != tt.expected {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, result, tt.expected)
			}
		})
	}
}

func TestFormatHuman_UnknownType(t *testing.T) {
	// For unknown types, should fall back to JSON with a note
	resp := struct {
		Foo string `json:"foo"`
	}{Foo: "bar"}

	result, err := formatHuman(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result, "Human format not available") {
		t.Error("missing fallback message")
	}
	if !strings.Contains(result, `"foo": "bar"`) {
		t.Error("missing JSON content")
	}
}

func TestFormatSearchHuman(t *testing.T) {
	resp := &query.Response{
		Results: []query.Result{
			{EntityID: "e1", Path: "engine.go", StartLine: 10, EndLine: 20, Content: "func Engine() {}", FinalScore: 0.91, VecScore: 0.9, FTSScore: 0.8},
		},
	}

	result, err := formatHuman(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "Found 1 match(es)") {
		t.Error("missing match count")
	}
	if !strings.Contains(result, "engine.go:10-20") {
		t.Error("missing result location")
	}
}

func TestFormatSearchHuman_Degraded(t *testing.T) {
	resp := &query.Response{Degraded: true, Results: nil}
	result, err := formatHuman(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "degraded") {
		t.Error("missing degraded warning")
	}
	if !strings.Contains(result, "No matches found") {
		t.Error("missing empty-results message")
	}
}

func TestFormatJobsListHuman(t *testing.T) {
	resp := &jobs.ListResponse{
		TotalCount: 1,
		Jobs: []jobs.Summary{
			{ID: uuid.New(), RepoName: "myapp", JobType: jobs.FullIndex, Status: jobs.Done, Priority: 10, Attempts: 1, CreatedAt: time.Now()},
		},
	}

	result, err := formatHuman(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "FULL_INDEX") {
		t.Error("missing job type")
	}
	if !strings.Contains(result, "myapp") {
		t.Error("missing repo name")
	}
}

func TestFormatJobHuman(t *testing.T) {
	j := &jobs.Job{
		ID: uuid.New(), RepoName: "myapp", SchemaName: "repo_myapp",
		JobType: jobs.EmbedMissing, Status: jobs.Claimed, Priority: 5,
		Attempts: 1, MaxAttempts: 3, ClaimedBy: "worker-1", CreatedAt: time.Now(),
	}

	result, err := formatHuman(j)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "EMBED_MISSING") {
		t.Error("missing job type")
	}
	if !strings.Contains(result, "worker-1") {
		t.Error("missing claimed-by")
	}
}

func TestFormatDaemonStatusHuman(t *testing.T) {
	instances := []health.Instance{
		{InstanceID: "inst-1", Status: "running", StartedAt: time.Now(), LastHeartbeat: time.Now()},
	}

	result, err := formatHuman(instances)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "inst-1") {
		t.Error("missing instance id")
	}
	if !strings.Contains(result, "✓") {
		t.Error("missing running icon")
	}
}
