// Package main provides the CLI entry point for memcore, the MongoDB-backed
// agent memory core: schema setup, incremental sync, capability-adaptive
// search, and status/stats reporting over a watched workspace.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/nexus-memcore/internal/config"
)

var configPath string

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "memcore",
		Short:        "memcore - MongoDB-backed agent memory core",
		Long:         `memcore syncs a watched markdown workspace into MongoDB, producing embeddings and a capability-adaptive hybrid search surface for agents.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "path to the memcore config file")

	rootCmd.AddCommand(
		newInitCmd(),
		newSyncCmd(),
		newSearchCmd(),
		newStatusCmd(),
		newStatsCmd(),
		newReadCmd(),
	)
	return rootCmd
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	return config.Load(configPath)
}
