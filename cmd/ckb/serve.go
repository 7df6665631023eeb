package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ckb/internal/config"
	"ckb/internal/daemon"
	"ckb/internal/logging"
	"ckb/internal/mcp"
	"ckb/internal/version"
)

var (
	servePort      int
	serveHost      string
	serveAuthToken string
	serveMCP       bool
	serveRepo      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon: background job workers, the HTTP admin API, and the MCP stdio server",
	Long: `Serve starts the always-on CKB service (§6):

  - the job worker pool and file watcher (C3-C6 driven by internal/daemon)
  - the HTTP Management API (registry, jobs, hybrid search, stats, maintenance)
  - the MCP stdio JSON-RPC server, for tool-calling clients like Claude Code

All three share one control-plane connection to Postgres.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "Admin API port (overrides config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Admin API bind address (overrides config)")
	serveCmd.Flags().StringVar(&serveAuthToken, "auth-token", "", "Bearer token for admin API requests (env: CKB_DAEMON_TOKEN)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", true, "Also run the MCP stdio server in the foreground")
	serveCmd.Flags().StringVar(&serveRepo, "repo", "", "Repository path (auto-detected)")
}

func runServe(cmd *cobra.Command, args []string) error {
	repoRoot := serveRepo
	if repoRoot == "" {
		repoRoot = mustGetRepoRoot()
	}

	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != 0 {
		cfg.Daemon.Port = servePort
	}
	if serveHost != "" {
		cfg.Daemon.Bind = serveHost
	}
	if serveAuthToken != "" {
		cfg.Daemon.Auth.Enabled = true
		cfg.Daemon.Auth.Token = serveAuthToken
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize daemon: %w", err)
	}
	if err := d.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Printf("CKB v%s serving repo %s\n", version.Version, repoRoot)
	fmt.Printf("Admin API listening on http://%s:%d\n", cfg.Daemon.Bind, cfg.Daemon.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	mcpDone := make(chan error, 1)
	if serveMCP {
		logger := logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.InfoLevel})
		server := mcp.NewMCPServer(os.Stdin, os.Stdout, logger, version.Version, mcp.Deps{
			Store:     d.Store(),
			Jobs:      d.JobStore(),
			Retriever: d.Retriever(),
			Embedder:  d.Embedder(),
			Tags:      d.TagSyncer(),
			Health:    d.HealthMonitor(),
		})
		go func() { mcpDone <- server.Run(ctx) }()
	} else {
		fmt.Println("MCP stdio disabled (--mcp=false); press Ctrl+C to stop")
	}

	select {
	case sig := <-sigCh:
		fmt.Printf("Received %s, shutting down\n", sig)
	case err := <-mcpDone:
		if err != nil {
			fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		}
		fmt.Println("MCP stdio closed, shutting down")
	}

	cancel()
	return d.Stop()
}
