package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mwhitlock/rolodex/internal/domain/model"
	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

// ValidateResult is the per-account outcome of a validation pass.
type ValidateResult struct {
	Status model.AccountStatus
	Err    error
}

// Validator drives account lifecycle transitions by probing the remote
// service. Status only ever changes through an explicit probe result or an
// auth error surfaced during a search; nothing transitions silently.
type Validator struct {
	accounts  driven.AccountStore
	secrets   driven.SecretStore
	client    driven.NetworkClient
	limiter   *RateLimiter
	staleDays int
	interval  time.Duration
	now       func() time.Time
}

// NewValidator creates a Validator with all required dependencies.
func NewValidator(
	accounts driven.AccountStore,
	secrets driven.SecretStore,
	client driven.NetworkClient,
	limiter *RateLimiter,
	staleDays int,
	interval time.Duration,
) *Validator {
	return &Validator{
		accounts:  accounts,
		secrets:   secrets,
		client:    client,
		limiter:   limiter,
		staleDays: staleDays,
		interval:  interval,
		now:       time.Now,
	}
}

// Validate probes one account and applies the resulting lifecycle
// transition. The updated status is returned along with the probe error, if
// any. A transient network failure leaves both the status and
// LastValidatedAt untouched so staleness keeps accumulating.
func (v *Validator) Validate(ctx context.Context, account model.Account) (model.AccountStatus, error) {
	secret, err := v.secrets.Get(ctx, account.ID)
	if err != nil {
		return account.Status, err
	}
	if secret == "" {
		account.Status = model.AccountStatusInvalid
		account.ValidationError = "no stored session secret"
		if err := v.accounts.Upsert(ctx, account); err != nil {
			return account.Status, err
		}
		return account.Status, &driven.AuthError{Kind: driven.AuthKindInvalid, Reason: "no stored session secret"}
	}

	probeErr := v.client.Probe(ctx, secret)
	changed := applyProbeResult(&account, probeErr, v.now())
	if changed {
		if err := v.accounts.Upsert(ctx, account); err != nil {
			return account.Status, err
		}
	}
	return account.Status, probeErr
}

// applyProbeResult mutates the account's lifecycle fields according to the
// probe (or search-time) error and reports whether anything changed.
// Shared with the search orchestrator so an auth error at search time
// transitions status without a separate validation round trip.
func applyProbeResult(account *model.Account, probeErr error, now time.Time) bool {
	if probeErr == nil {
		account.Status = model.AccountStatusValid
		account.ValidationError = ""
		account.LastValidatedAt = &now
		return true
	}

	var authErr *driven.AuthError
	if errors.As(probeErr, &authErr) {
		if authErr.Kind == driven.AuthKindExpired {
			account.Status = model.AccountStatusExpired
		} else {
			account.Status = model.AccountStatusInvalid
		}
		account.ValidationError = authErr.Reason
		return true
	}

	var rateErr *driven.ProviderRateLimitError
	if errors.As(probeErr, &rateErr) {
		account.Status = model.AccountStatusRateLimited
		account.ValidationError = rateErr.Error()
		return true
	}

	// Network or timeout failure: no validity signal, leave everything as is.
	return false
}

// ValidateAll probes every given account, spacing probes through the rate
// limiter under the validate action type. One account's failure never aborts
// the rest; the returned map holds one result per account.
func (v *Validator) ValidateAll(ctx context.Context, accounts []model.Account) map[string]ValidateResult {
	results := make(map[string]ValidateResult, len(accounts))

	for _, account := range accounts {
		if ctx.Err() != nil {
			results[account.ID] = ValidateResult{Status: account.Status, Err: ctx.Err()}
			continue
		}

		if err := v.limiter.CheckAndProceed(ctx, account.ID, model.ActionValidate); err != nil {
			slog.Warn("validation gated", "account", account.ID, "error", err)
			results[account.ID] = ValidateResult{Status: account.Status, Err: err}
			continue
		}

		status, err := v.Validate(ctx, account)
		if err != nil {
			slog.Warn("probe failed", "account", account.ID, "status", string(status), "error", err)
		}
		results[account.ID] = ValidateResult{Status: status, Err: err}
	}

	return results
}

// RefreshCandidates filters accounts that need re-validation: stale ones and
// those already marked expired or invalid. Revoked accounts are never
// candidates.
func RefreshCandidates(accounts []model.Account, staleDays int, now time.Time) []model.Account {
	var out []model.Account
	for _, a := range accounts {
		if a.Revoked() {
			continue
		}
		if a.IsStale(now, staleDays) || a.Status == model.AccountStatusExpired || a.Status == model.AccountStatusInvalid {
			out = append(out, a)
		}
	}
	return out
}

// Start runs the periodic re-validation loop. It validates refresh
// candidates immediately, then on every interval tick. Start blocks until
// the context is canceled.
func (v *Validator) Start(ctx context.Context) {
	if err := v.refresh(ctx); err != nil {
		slog.Error("initial validation pass failed", "error", err)
	}

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("validator stopped")
			return
		case <-ticker.C:
			if err := v.refresh(ctx); err != nil {
				slog.Error("validation pass failed", "error", err)
			}
		}
	}
}

// refresh runs one validation pass over the current refresh candidates.
func (v *Validator) refresh(ctx context.Context) error {
	start := v.now()

	accounts, err := v.accounts.List(ctx)
	if err != nil {
		return err
	}

	candidates := RefreshCandidates(accounts, v.staleDays, v.now())
	if len(candidates) == 0 {
		slog.Debug("no accounts need validation", "accounts", len(accounts))
		return nil
	}

	results := v.ValidateAll(ctx, candidates)

	var failures int
	for _, res := range results {
		if res.Err != nil {
			failures++
		}
	}

	slog.Info("validation pass complete",
		"candidates", len(candidates),
		"failures", failures,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
