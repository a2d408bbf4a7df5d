package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/nexus-memcore/internal/onboard"
)

func newInitCmd() *cobra.Command {
	var opts onboard.Options
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter memcore config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := onboard.BuildConfig(opts)
			if err := onboard.WriteConfig(configPath, raw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote config: %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.WorkspacePath, "workspace", ".", "workspace directory to watch and sync")
	cmd.Flags().StringVar(&opts.AgentID, "agent-id", "", "agent id, enables session-transcript sync")
	cmd.Flags().StringVar(&opts.MongoURI, "mongo-uri", "", "MongoDB connection string (falls back to OPENCLAW_MONGODB_URI)")
	cmd.Flags().StringVar(&opts.MongoDatabase, "mongo-database", "openclaw", "MongoDB database name")
	cmd.Flags().StringVar(&opts.DeploymentProfile, "deployment-profile", "atlas-default", "atlas-default, atlas-m0, community-mongot, or community-bare")
	cmd.Flags().StringVar(&opts.EmbeddingProvider, "embedding-provider", "", "openai or ollama; leave empty for server-side automated embeddings")
	cmd.Flags().StringVar(&opts.EmbeddingModel, "embedding-model", "", "embedding model name")
	cmd.Flags().StringVar(&opts.EmbeddingAPIKey, "embedding-api-key", "", "embedding provider API key")
	cmd.Flags().BoolVar(&opts.EnableChangeStreams, "enable-change-streams", false, "watch for external writers via a MongoDB change stream (requires a replica set)")
	return cmd
}
