package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mwhitlock/rolodex/internal/application"
)

func newExportCmd() *cobra.Command {
	var (
		runFlag string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write deduplicated search results to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var runID uuid.UUID
			if runFlag != "" {
				runID, err = uuid.Parse(runFlag)
				if err != nil {
					return fmt.Errorf("invalid run id %q: %w", runFlag, err)
				}
			} else if a.dedupScope() != application.DedupScopeGlobal {
				return fmt.Errorf("--run is required unless ROLODEX_DEDUP_SCOPE=global")
			}

			if err := exportRun(cmd.Context(), a, runID, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&runFlag, "run", "", "run ID to export")
	cmd.Flags().StringVar(&out, "out", "export.csv", "output CSV file")
	return cmd
}
