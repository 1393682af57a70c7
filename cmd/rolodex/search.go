package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mwhitlock/rolodex/internal/adapter/driven/csvexport"
	"github.com/mwhitlock/rolodex/internal/application"
	"github.com/mwhitlock/rolodex/internal/domain/model"
)

func newSearchCmd() *cobra.Command {
	var (
		keywords string
		company  string
		location string
		degrees  []int
		limit    int
		out      string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a people search across every eligible account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := a.client()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			accounts, err := a.accounts.List(ctx)
			if err != nil {
				return err
			}

			filter := model.SearchFilter{
				Keywords:    keywords,
				CompanyName: company,
				Location:    location,
				Degrees:     degrees,
				Limit:       limit,
			}

			svc := application.NewSearchService(a.accounts, a.secrets, client, a.profiles, a.limiter)
			report, err := svc.ExecuteSearch(ctx, filter, accounts)
			if err != nil {
				return err
			}

			printReport(cmd, report)

			if out == "" {
				return nil
			}
			return exportRun(ctx, a, report.RunID, out)
		},
	}

	cmd.Flags().StringVar(&keywords, "keywords", "", "search keywords")
	cmd.Flags().StringVar(&company, "company", "", "filter by current company name")
	cmd.Flags().StringVar(&location, "location", "", "filter by region")
	cmd.Flags().IntSliceVar(&degrees, "degrees", nil, "network degrees to include (1,2,3)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results per account")
	cmd.Flags().StringVar(&out, "out", "", "write the deduplicated results to this CSV file")
	return cmd
}

func printReport(cmd *cobra.Command, report *application.SearchReport) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s: %d profiles from %d accounts\n",
		report.RunID, len(report.Profiles), len(report.Outcomes))

	ids := make([]string, 0, len(report.Outcomes))
	for id := range report.Outcomes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		outcome := report.Outcomes[id]
		switch outcome.Kind {
		case application.OutcomeSuccess:
			fmt.Fprintf(w, "  %s: %d profiles\n", id, outcome.Count)
		default:
			fmt.Fprintf(w, "  %s: %s (%s)\n", id, outcome.Kind, outcome.Reason)
		}
	}
}

// exportRun writes the deduplicated results of one run to a CSV file.
func exportRun(ctx context.Context, a *app, runID uuid.UUID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	agg := application.NewAggregator(a.profiles, csvexport.NewExporter(f), a.dedupScope())
	if err := agg.Export(ctx, runID); err != nil {
		return err
	}
	return f.Close()
}
