package main

import (
	"fmt"
	"log/slog"
	"time"

	remoteadapter "github.com/mwhitlock/rolodex/internal/adapter/driven/remote"
	sqliteadapter "github.com/mwhitlock/rolodex/internal/adapter/driven/sqlite"
	"github.com/mwhitlock/rolodex/internal/application"
	"github.com/mwhitlock/rolodex/internal/config"
)

// app bundles the wired adapters and services shared by every subcommand.
type app struct {
	cfg      *config.Config
	db       *sqliteadapter.DB
	accounts *sqliteadapter.AccountRepo
	ledger   *sqliteadapter.LedgerRepo
	profiles *sqliteadapter.ProfileRepo
	secrets  *sqliteadapter.SecretRepo
	limiter  *application.RateLimiter
}

// openApp loads config, opens the database, runs migrations, and wires the
// adapter layer. The caller must Close.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		db.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		db:       db,
		accounts: sqliteadapter.NewAccountRepo(db),
		ledger:   sqliteadapter.NewLedgerRepo(db),
		profiles: sqliteadapter.NewProfileRepo(db),
		secrets:  sqliteadapter.NewSecretRepo(db, cfg.SecretKey),
	}
	a.limiter = application.NewRateLimiter(a.ledger, application.RateLimiterConfig{
		DailyBudget: cfg.DailyBudget,
		MinDelay:    cfg.MinDelay,
		MaxDelay:    cfg.MaxDelay,
	})
	return a, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// client returns the remote client, or an error when no API base URL is
// configured.
func (a *app) client() (*remoteadapter.Client, error) {
	if a.cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("ROLODEX_API_BASE_URL is not set")
	}
	return remoteadapter.NewClient(a.cfg.APIBaseURL), nil
}

// validator builds the credential validator over the remote client.
func (a *app) validator() (*application.Validator, error) {
	client, err := a.client()
	if err != nil {
		return nil, err
	}
	return application.NewValidator(a.accounts, a.secrets, client, a.limiter, a.cfg.StaleDays, a.cfg.ValidateInterval), nil
}

func (a *app) dedupScope() application.DedupScope {
	return application.DedupScope(a.cfg.DedupScope)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
