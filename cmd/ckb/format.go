package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"ckb/internal/health"
	"ckb/internal/jobs"
	"ckb/internal/query"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *query.Response:
		return formatSearchHuman(v), nil
	case *jobs.ListResponse:
		return formatJobsListHuman(v), nil
	case *jobs.Job:
		return formatJobHuman(v), nil
	case []health.Instance:
		return formatDaemonStatusHuman(v), nil
	default:
		// For types without a human formatter, fall back to JSON with a note.
		data, err := formatJSON(resp)
		if err != nil {
			return "", err
		}
		return "Human format not available for this response; showing JSON:\n" + data, nil
	}
}

// formatSearchHuman renders a hybrid retrieval Response as a ranked result list.
func formatSearchHuman(resp *query.Response) string {
	var b strings.Builder

	if resp.Degraded {
		b.WriteString("⚠ degraded: one of the vector/FTS retrieval paths failed; results are best-effort\n\n")
	}

	if len(resp.Results) == 0 {
		b.WriteString("No matches found.\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Found %d match(es)\n\n", len(resp.Results)))
	for i, r := range resp.Results {
		loc := r.Path
		if r.StartLine > 0 {
			loc = fmt.Sprintf("%s:%d-%d", r.Path, r.StartLine, r.EndLine)
		}
		b.WriteString(fmt.Sprintf("%2d. %s  (score %.3f)\n", i+1, loc, r.FinalScore))
		if len(r.MatchedTags) > 0 {
			b.WriteString(fmt.Sprintf("    tags: %s\n", strings.Join(r.MatchedTags, ", ")))
		}
		b.WriteString(fmt.Sprintf("    vec=%.3f fts=%.3f tagBoost=%.3f\n", r.VecScore, r.FTSScore, r.TagBoost))
		snippet := r.Content
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		snippet = strings.ReplaceAll(snippet, "\n", " ")
		b.WriteString(fmt.Sprintf("    %s\n\n", snippet))
	}
	return b.String()
}

func jobStatusIcon(status jobs.Status) string {
	switch status {
	case jobs.Done:
		return "✓"
	case jobs.Failed:
		return "✗"
	case jobs.Claimed:
		return "◐"
	case jobs.Cancelled:
		return "⊘"
	default:
		return "○"
	}
}

// formatJobsListHuman renders a jobs.ListResponse as a status-annotated list.
func formatJobsListHuman(resp *jobs.ListResponse) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Jobs (%d)\n", resp.TotalCount))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(resp.Jobs) == 0 {
		b.WriteString("No jobs found.\n")
		return b.String()
	}

	for _, j := range resp.Jobs {
		b.WriteString(fmt.Sprintf("%s [%s] %s  repo=%s  priority=%d  attempts=%d\n",
			jobStatusIcon(j.Status), shortID(j.ID.String()), j.JobType, j.RepoName, j.Priority, j.Attempts))
		b.WriteString(fmt.Sprintf("    created %s\n", j.CreatedAt.Format("2006-01-02 15:04:05")))
		if j.Error != "" {
			b.WriteString(fmt.Sprintf("    error: %s\n", j.Error))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatJobHuman renders a single job's full detail.
func formatJobHuman(j *jobs.Job) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Job %s\n", j.ID))
	b.WriteString(fmt.Sprintf("  %s %s\n", jobStatusIcon(j.Status), j.Status))
	b.WriteString(fmt.Sprintf("  type:     %s\n", j.JobType))
	b.WriteString(fmt.Sprintf("  repo:     %s (schema %s)\n", j.RepoName, j.SchemaName))
	b.WriteString(fmt.Sprintf("  priority: %d\n", j.Priority))
	b.WriteString(fmt.Sprintf("  attempts: %d/%d\n", j.Attempts, j.MaxAttempts))
	if j.ClaimedBy != "" {
		b.WriteString(fmt.Sprintf("  claimed by: %s\n", j.ClaimedBy))
	}
	b.WriteString(fmt.Sprintf("  created:  %s\n", j.CreatedAt.Format("2006-01-02 15:04:05")))
	if j.StartedAt != nil {
		b.WriteString(fmt.Sprintf("  started:  %s (duration %s)\n", j.StartedAt.Format("2006-01-02 15:04:05"), j.Duration()))
	}
	if j.CompletedAt != nil {
		b.WriteString(fmt.Sprintf("  completed: %s\n", j.CompletedAt.Format("2006-01-02 15:04:05")))
	}
	if j.DedupKey != "" {
		b.WriteString(fmt.Sprintf("  dedup key: %s\n", j.DedupKey))
	}
	if j.Error != "" {
		b.WriteString(fmt.Sprintf("  error: %s\n", j.Error))
	}
	if len(j.Payload) > 0 && string(j.Payload) != "null" {
		b.WriteString(fmt.Sprintf("  payload: %s\n", j.Payload))
	}
	return b.String()
}

// formatDaemonStatusHuman renders the daemon_instance table (§6 daemon_status)
// as a per-instance liveness list.
func formatDaemonStatusHuman(instances []health.Instance) string {
	var b strings.Builder
	if len(instances) == 0 {
		b.WriteString("No daemon instances registered.\n")
		return b.String()
	}
	b.WriteString("Daemon Instances\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	for _, inst := range instances {
		icon := "✓"
		if inst.Status != "running" {
			icon = "✗"
		}
		b.WriteString(fmt.Sprintf("%s %s  status=%s\n", icon, inst.InstanceID, inst.Status))
		b.WriteString(fmt.Sprintf("    started:        %s\n", inst.StartedAt.Format("2006-01-02 15:04:05")))
		b.WriteString(fmt.Sprintf("    last heartbeat: %s\n", inst.LastHeartbeat.Format("2006-01-02 15:04:05")))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatBytes renders a byte count using binary (KiB/MiB/GiB) units.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
