package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the stored profile pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.profiles.Stats(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "profiles:  %d\n", stats.TotalProfiles)
			fmt.Fprintf(w, "companies: %d\n", stats.UniqueCompanies)
			fmt.Fprintf(w, "locations: %d\n", stats.UniqueLocations)
			fmt.Fprintf(w, "runs:      %d\n", stats.RunCount)

			degrees := make([]int, 0, len(stats.DegreeCounts))
			for d := range stats.DegreeCounts {
				degrees = append(degrees, d)
			}
			sort.Ints(degrees)
			for _, d := range degrees {
				fmt.Fprintf(w, "degree %d:  %d\n", d, stats.DegreeCounts[d])
			}
			return nil
		},
	}
}
