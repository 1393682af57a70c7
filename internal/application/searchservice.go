package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mwhitlock/rolodex/internal/domain/model"
	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

// SearchReport is the result of one batch search: the union of all persisted
// profiles plus a per-account outcome line.
type SearchReport struct {
	RunID    uuid.UUID
	Profiles []model.Profile
	Outcomes map[string]Outcome
}

// SearchService sequences validator state, rate limiting, the remote search
// call, mapping, and persistence for one or many accounts. A single account
// is simply the one-element batch; there is no separate code path.
type SearchService struct {
	accounts driven.AccountStore
	secrets  driven.SecretStore
	client   driven.NetworkClient
	profiles driven.ProfileStore
	limiter  *RateLimiter
	now      func() time.Time
}

// NewSearchService creates a SearchService with all required dependencies.
func NewSearchService(
	accounts driven.AccountStore,
	secrets driven.SecretStore,
	client driven.NetworkClient,
	profiles driven.ProfileStore,
	limiter *RateLimiter,
) *SearchService {
	return &SearchService{
		accounts: accounts,
		secrets:  secrets,
		client:   client,
		profiles: profiles,
		limiter:  limiter,
		now:      time.Now,
	}
}

// ExecuteSearch runs the filter under every eligible account concurrently.
// Ineligible accounts get a skipped outcome; per-account failures are folded
// into the report and never abort the batch. Canceling ctx stops further
// accounts from starting, but any account already searching finishes and
// persists its results. Only a malformed filter or a total absence of
// eligible accounts returns an error.
func (s *SearchService) ExecuteSearch(ctx context.Context, filter model.SearchFilter, accounts []model.Account) (*SearchReport, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	report := &SearchReport{
		RunID:    uuid.New(),
		Outcomes: make(map[string]Outcome, len(accounts)),
	}

	var eligible []model.Account
	for _, account := range accounts {
		switch {
		case account.Revoked():
			report.Outcomes[account.ID] = skipped("revoked")
		case account.Status != model.AccountStatusValid:
			report.Outcomes[account.ID] = skipped(string(account.Status))
		default:
			eligible = append(eligible, account)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleAccounts
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	for _, account := range eligible {
		account := account
		// Batch cancellation gates the start of new per-account work only.
		if ctx.Err() != nil {
			mu.Lock()
			report.Outcomes[account.ID] = skipped("canceled")
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			profiles, outcome := s.searchOne(ctx, filter, account, report.RunID)

			mu.Lock()
			report.Outcomes[account.ID] = outcome
			report.Profiles = append(report.Profiles, profiles...)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // Workers never return errors; failures live in outcomes.

	slog.Info("search batch complete",
		"run_id", report.RunID,
		"accounts", len(accounts),
		"eligible", len(eligible),
		"profiles", len(report.Profiles),
	)

	return report, nil
}

// searchOne runs the full per-account sequence: company resolution, rate
// gate, remote search, tagging, persistence. Once the rate gate has been
// passed the remainder runs on a detached context, so a batch cancellation
// never drops results that the remote call already paid for.
func (s *SearchService) searchOne(ctx context.Context, filter model.SearchFilter, account model.Account, runID uuid.UUID) ([]model.Profile, Outcome) {
	secret, err := s.secrets.Get(ctx, account.ID)
	if err != nil {
		return nil, failed("secret lookup failed: " + err.Error())
	}
	if secret == "" {
		return nil, failed("no stored session secret")
	}

	// Resolve a company name to an ID through this account's own session.
	if filter.CompanyName != "" && filter.CompanyID == "" {
		id, err := s.client.ResolveCompany(ctx, secret, filter.CompanyName)
		if err != nil {
			slog.Warn("company resolution failed", "account", account.ID, "company", filter.CompanyName, "error", err)
			return nil, failed("company resolution failed")
		}
		// Unknown company: search proceeds without the filter, matching the
		// remote service's own behavior for a bad company name.
		filter.CompanyID = id
		filter.CompanyName = ""
	}

	if err := s.limiter.CheckAndProceed(ctx, account.ID, model.ActionSearch); err != nil {
		var quotaErr *QuotaExceededError
		if errors.As(err, &quotaErr) {
			return nil, failed("quota_exceeded")
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, failed("canceled")
		}
		return nil, failed("rate gate failed: " + err.Error())
	}

	// From here on the action is spent: finish and persist even if the batch
	// gets canceled mid-flight.
	dctx := context.WithoutCancel(ctx)

	results, err := s.client.Search(dctx, secret, filter)
	if err != nil {
		if applyProbeResult(&account, err, s.now()) {
			if upsertErr := s.accounts.Upsert(dctx, account); upsertErr != nil {
				slog.Error("status update failed", "account", account.ID, "error", upsertErr)
			}
		}
		slog.Warn("search failed", "account", account.ID, "status", string(account.Status), "error", err)
		return nil, failed(err.Error())
	}

	now := s.now()
	var persisted []model.Profile
	for _, p := range results {
		p.ID = uuid.New()
		p.SourceAccountID = account.ID
		p.RunID = runID
		if p.FoundAt.IsZero() {
			p.FoundAt = now
		}
		if err := s.profiles.Save(dctx, p); err != nil {
			slog.Error("profile save failed", "account", account.ID, "identity", p.IdentityKey, "error", err)
			continue
		}
		persisted = append(persisted, p)
	}

	account.LastUsedAt = &now
	if err := s.accounts.Upsert(dctx, account); err != nil {
		slog.Error("last-used update failed", "account", account.ID, "error", err)
	}

	slog.Info("account searched", "account", account.ID, "fetched", len(results), "persisted", len(persisted))
	return persisted, success(len(persisted))
}
