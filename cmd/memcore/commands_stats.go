package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Report source breakdown, embedding coverage, and collection counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, _, err := openManager(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close(ctx)

			report, err := mgr.Stats(ctx, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "source breakdown:")
			for source, count := range report.SourceBreakdown {
				fmt.Fprintf(out, "  %s: %d\n", source, count)
			}
			fmt.Fprintln(out, "embedding status:")
			for status, count := range report.EmbeddingStatus {
				fmt.Fprintf(out, "  %s: %d\n", status, count)
			}
			fmt.Fprintf(out, "cached embeddings: %d\n", report.CachedEmbeddings)
			fmt.Fprintln(out, "collection counts:")
			for coll, count := range report.CollectionCounts {
				fmt.Fprintf(out, "  %s: %d\n", coll, count)
			}
			if len(report.StaleFiles) > 0 {
				fmt.Fprintf(out, "stale files: %v\n", report.StaleFiles)
			}
			return nil
		},
	}
}
