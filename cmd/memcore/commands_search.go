package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/nexus-memcore/internal/memory/backend"
)

func newSearchCmd() *cobra.Command {
	var maxResults int
	var minScore float64
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the memory core",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, _, err := openManager(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close(ctx)

			query := strings.Join(args, " ")
			results, err := mgr.Search(ctx, query, backend.SearchOptions{MaxResults: maxResults, MinScore: minScore})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "no results")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%d. [%s] %s (score %.3f)\n    %s\n", i+1, r.Source, r.Path, r.Score, r.Snippet)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxResults, "max-results", 10, "maximum number of results")
	cmd.Flags().Float64Var(&minScore, "min-score", 0.1, "minimum normalized score to include")
	return cmd
}
