package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ckb/internal/jobs"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect and control background jobs (§4.6 job queue)",
}

var (
	jobListRepo   string
	jobListStatus string
	jobListLimit  int
	jobFormat     string
)

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, newest first",
	Run:   runJobList,
}

var jobShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one job's full detail",
	Args:  cobra.ExactArgs(1),
	Run:   runJobShow,
}

var jobCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a PENDING or CLAIMED job",
	Args:  cobra.ExactArgs(1),
	Run:   runJobCancel,
}

var (
	jobTriggerRepo     string
	jobTriggerPriority int
)

var jobTriggerCmd = &cobra.Command{
	Use:   "trigger <job-type>",
	Short: "Enqueue a job by type (full-index, embed-missing, docs-scan, tag-rules-sync, summarize-missing)",
	Long: `Trigger enqueues a job of the given type against --repo (defaults to the
active/registered repo). Supported types:

  full-index          re-walk and re-parse the whole repo
  embed-missing        backfill embeddings for chunks/documents/summaries
  docs-scan             rescan configured doc globs
  tag-rules-sync         re-evaluate tag rules over the repo
  summarize-missing      backfill missing entity summaries`,
	Args: cobra.ExactArgs(1),
	Run:  runJobTrigger,
}

func init() {
	jobListCmd.Flags().StringVar(&jobListRepo, "repo", "", "Filter by repo name")
	jobListCmd.Flags().StringVar(&jobListStatus, "status", "", "Filter by status (PENDING, CLAIMED, DONE, FAILED, CANCELLED)")
	jobListCmd.Flags().IntVar(&jobListLimit, "limit", 50, "Maximum number of jobs to list")

	jobTriggerCmd.Flags().StringVar(&jobTriggerRepo, "repo", "", "Repo name (defaults to the active/registered repo)")
	jobTriggerCmd.Flags().IntVar(&jobTriggerPriority, "priority", 0, "Override the job type's default priority")

	jobCmd.PersistentFlags().StringVar(&jobFormat, "format", "human", "Output format (json, human)")
	jobCmd.AddCommand(jobListCmd, jobShowCmd, jobCancelCmd, jobTriggerCmd)
	rootCmd.AddCommand(jobCmd)
}

var jobTriggerAliases = map[string]jobs.Type{
	"full-index":        jobs.FullIndex,
	"embed-missing":     jobs.EmbedMissing,
	"docs-scan":         jobs.DocsScan,
	"tag-rules-sync":    jobs.TagRulesSync,
	"summarize-missing": jobs.SummarizeMissing,
}

func runJobList(cmd *cobra.Command, args []string) {
	logger := newLogger()
	repoRoot := mustGetRepoRoot()
	ctx := newContext()
	st := mustBuildStack(ctx, repoRoot, logger)
	defer st.Store.Close()

	opts := jobs.ListOptions{RepoName: jobListRepo, Limit: jobListLimit}
	if jobListStatus != "" {
		opts.Status = []jobs.Status{jobs.Status(strings.ToUpper(jobListStatus))}
	}

	resp, err := st.JobStore.List(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing jobs: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(resp, OutputFormat(jobFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func parseJobID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid job id %q: %v\n", raw, err)
		os.Exit(1)
	}
	return id
}

func runJobShow(cmd *cobra.Command, args []string) {
	logger := newLogger()
	repoRoot := mustGetRepoRoot()
	ctx := newContext()
	st := mustBuildStack(ctx, repoRoot, logger)
	defer st.Store.Close()

	job, err := st.JobStore.Get(ctx, parseJobID(args[0]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching job: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(job, OutputFormat(jobFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runJobCancel(cmd *cobra.Command, args []string) {
	logger := newLogger()
	repoRoot := mustGetRepoRoot()
	ctx := newContext()
	st := mustBuildStack(ctx, repoRoot, logger)
	defer st.Store.Close()

	id := parseJobID(args[0])
	if err := st.JobStore.Cancel(ctx, id); err != nil {
		fmt.Fprintf(os.Stderr, "Error cancelling job: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Cancelled job %s\n", id)
}

func runJobTrigger(cmd *cobra.Command, args []string) {
	logger := newLogger()
	jobType, ok := jobTriggerAliases[args[0]]
	if !ok {
		known := make([]string, 0, len(jobTriggerAliases))
		for k := range jobTriggerAliases {
			known = append(known, k)
		}
		fmt.Fprintf(os.Stderr, "Error: unknown job type %q (expected one of: %s)\n", args[0], strings.Join(known, ", "))
		os.Exit(1)
	}

	repoRoot := mustGetRepoRoot()
	ctx := newContext()
	st := mustBuildStack(ctx, repoRoot, logger)
	defer st.Store.Close()

	repo, err := resolveRepoEntry(ctx, st.Store, repoRoot, jobTriggerRepo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving repo: %v\n", err)
		os.Exit(1)
	}

	var payload interface{}
	switch jobType {
	case jobs.FullIndex:
		payload = jobs.FullIndexPayload{RootPath: repo.RootPath}
	case jobs.EmbedMissing:
		payload = jobs.EmbedMissingPayload{Table: "chunk"}
	case jobs.DocsScan:
		payload = jobs.DocsScanPayload{}
	case jobs.TagRulesSync:
		payload = struct{}{}
	case jobs.SummarizeMissing:
		payload = jobs.SummarizePayload{}
	}

	id, err := st.JobStore.Enqueue(ctx, repo.Name, repo.SchemaName, jobType, payload, jobs.EnqueueOptions{Priority: jobTriggerPriority})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error enqueueing job: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Enqueued %s job %s for repo %s\n", jobType, id, repo.Name)
}
