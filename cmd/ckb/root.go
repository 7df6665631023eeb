package main

import (
	"ckb/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ckb",
	Short: "CKB - Code Knowledge Backend",
	Long: `CKB (Code Knowledge Backend) indexes a codebase into Postgres, embeds its
symbols and chunks, and serves hybrid vector+keyword retrieval over HTTP and
MCP stdio.`,
	Version: version.Version,
}

var (
	verbosity int
	quiet     bool
)

func init() {
	rootCmd.SetVersionTemplate("CKB version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
}
