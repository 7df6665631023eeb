package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ckb/internal/query"
)

var (
	searchRepo     string
	searchPathGlob string
	searchLangs    string
	searchTagsAll  string
	searchTagsAny  string
	searchLimit    int
	searchFormat   string
	searchDocs     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Hybrid vector+keyword search over an indexed repo",
	Long: `Search runs the hybrid retrieval algorithm (vector candidates + full-text
candidates, merged and ranked by 0.55*vec + 0.35*fts + 0.10*tag_boost) against
a repo's chunk table, or its document table with --docs.

Examples:
  ckb search "parse json config"
  ckb search "handleRequest" --repo myapp --limit 10
  ckb search "retry logic" --tags-any backend,resilience
  ckb search "architecture decision" --docs`,
	Args: cobra.ExactArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchRepo, "repo", "", "Repo name (defaults to the active/registered repo)")
	searchCmd.Flags().StringVar(&searchPathGlob, "path", "", "Restrict to paths matching this glob")
	searchCmd.Flags().StringVar(&searchLangs, "languages", "", "Filter by languages (comma-separated)")
	searchCmd.Flags().StringVar(&searchTagsAll, "tags-all", "", "Require all of these tags (comma-separated)")
	searchCmd.Flags().StringVar(&searchTagsAny, "tags-any", "", "Require any of these tags (comma-separated)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", query.DefaultTopK, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "human", "Output format (json, human)")
	searchCmd.Flags().BoolVar(&searchDocs, "docs", false, "Search documents instead of code chunks")
	rootCmd.AddCommand(searchCmd)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runSearch(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger()
	queryStr := args[0]

	repoRoot := mustGetRepoRoot()
	ctx := newContext()
	st := mustBuildStack(ctx, repoRoot, logger)
	defer st.Store.Close()

	repo, err := resolveRepoEntry(ctx, st.Store, repoRoot, searchRepo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving repo: %v\n", err)
		os.Exit(1)
	}

	req := query.Request{
		Query: queryStr,
		TopK:  searchLimit,
		Filters: query.Filters{
			PathGlob:  searchPathGlob,
			Languages: splitCSV(searchLangs),
			TagsAll:   splitCSV(searchTagsAll),
			TagsAny:   splitCSV(searchTagsAny),
		},
	}

	var resp *query.Response
	if searchDocs {
		resp, err = st.Retriever.RetrieveDocuments(ctx, repo, req)
	} else {
		resp, err = st.Retriever.Retrieve(ctx, repo, req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching: %v\n", err)
		os.Exit(1)
	}

	output, err := FormatResponse(resp, OutputFormat(searchFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	logger.Debug("search completed", map[string]interface{}{
		"query":      queryStr,
		"results":    len(resp.Results),
		"durationMs": time.Since(start).Milliseconds(),
	})
}
