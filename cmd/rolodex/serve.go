package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the background credential re-validation loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("config loaded",
		"db_path", a.cfg.DBPath,
		"daily_budget", a.cfg.DailyBudget,
		"min_delay", a.cfg.MinDelay,
		"max_delay", a.cfg.MaxDelay,
		"validate_interval", a.cfg.ValidateInterval,
		"dedup_scope", a.cfg.DedupScope,
	)
	if !a.cfg.HasSecretKey() {
		slog.Warn("no encryption key configured, secret storage disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if stats, err := a.profiles.Stats(ctx); err != nil {
		slog.Error("stats query failed", "error", err)
	} else {
		slog.Info("profile pool",
			"total", stats.TotalProfiles,
			"companies", stats.UniqueCompanies,
			"locations", stats.UniqueLocations,
			"runs", stats.RunCount,
		)
	}

	validator, err := a.validator()
	if err != nil {
		slog.Info("validation loop disabled", "reason", err)
		<-ctx.Done()
		slog.Info("shutdown complete")
		return nil
	}

	slog.Info("rolodex started", "api_base_url", a.cfg.APIBaseURL)
	validator.Start(ctx)
	slog.Info("shutdown complete")
	return nil
}
