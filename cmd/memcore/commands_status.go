package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show a snapshot of backend, workspace, and sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, _, err := openManager(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close(ctx)

			status, err := mgr.Status(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "backend:    %s\n", status.Backend)
			fmt.Fprintf(out, "provider:   %s\n", status.Provider)
			fmt.Fprintf(out, "model:      %s\n", status.Model)
			fmt.Fprintf(out, "workspace:  %s\n", status.Workspace)
			fmt.Fprintf(out, "files:      %d\n", status.Files)
			fmt.Fprintf(out, "chunks:     %d\n", status.Chunks)
			fmt.Fprintf(out, "dirty:      %t\n", status.Dirty)
			fmt.Fprintf(out, "sources:    %v\n", status.Sources)
			for k, v := range status.Extra {
				fmt.Fprintf(out, "%s: %v\n", k, v)
			}
			return nil
		},
	}
}
