package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/nexus-memcore/internal/memory/backend"
)

func newReadCmd() *cobra.Command {
	var from, lines int
	cmd := &cobra.Command{
		Use:   "read <path>",
		Short: "Read a markdown file tracked by the memory core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, _, err := openManager(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close(ctx)

			text, err := mgr.ReadFile(ctx, backend.ReadFileRequest{RelPath: args[0], From: from, Lines: lines})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "1-based starting line")
	cmd.Flags().IntVar(&lines, "lines", 0, "number of lines to read from --from")
	return cmd
}
