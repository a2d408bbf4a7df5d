package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/nexus-memcore/internal/memory/backend"
)

func newSyncCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run an incremental sync of the watched workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, _, err := openManager(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close(ctx)

			result, err := mgr.Sync(ctx, backend.SyncOptions{Reason: "cli", Force: force})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "files processed: %d\n", result.FilesProcessed)
			fmt.Fprintf(out, "chunks upserted: %d\n", result.ChunksUpserted)
			fmt.Fprintf(out, "stale entries deleted: %d\n", result.StaleDeleted)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reprocess every file even if its content hash is unchanged")
	return cmd
}
