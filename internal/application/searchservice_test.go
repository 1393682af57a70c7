package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitlock/rolodex/internal/application"
	"github.com/mwhitlock/rolodex/internal/domain/model"
	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

type searchFixture struct {
	accounts *memAccounts
	secrets  *memSecrets
	client   *fakeClient
	profiles *memProfiles
	ledger   *memLedger
	svc      *application.SearchService
}

func newSearchFixture(budget int, accounts ...model.Account) *searchFixture {
	f := &searchFixture{
		accounts: newMemAccounts(accounts...),
		secrets:  newMemSecrets(nil),
		client:   &fakeClient{},
		profiles: &memProfiles{},
		ledger:   &memLedger{},
	}
	for _, a := range accounts {
		f.secrets.m[a.ID] = "session-token-" + a.ID
	}
	limiter := application.NewRateLimiter(f.ledger, application.RateLimiterConfig{DailyBudget: budget})
	f.svc = application.NewSearchService(f.accounts, f.secrets, f.client, f.profiles, limiter)
	return f
}

func rawResult(identity string, degree int) model.Profile {
	return model.Profile{
		IdentityKey: identity,
		FirstName:   "Grace",
		LastName:    "Hopper",
		Degree:      degree,
	}
}

func TestExecuteSearch_ValidAndExpiredAccounts(t *testing.T) {
	f := newSearchFixture(25,
		model.Account{ID: "a", Status: model.AccountStatusValid},
		model.Account{ID: "b", Status: model.AccountStatusExpired},
	)
	f.client.searchFn = func(secret string, _ model.SearchFilter) ([]model.Profile, error) {
		return []model.Profile{rawResult("urn:1", 1), rawResult("urn:2", 2)}, nil
	}

	report, err := f.svc.ExecuteSearch(context.Background(), model.SearchFilter{Keywords: "engineer"}, []model.Account{
		mustGet(t, f.accounts, "a"), mustGet(t, f.accounts, "b"),
	})
	require.NoError(t, err)

	assert.Equal(t, application.OutcomeSuccess, report.Outcomes["a"].Kind)
	assert.Equal(t, 2, report.Outcomes["a"].Count)
	assert.Equal(t, application.OutcomeSkipped, report.Outcomes["b"].Kind)
	assert.Equal(t, "expired", report.Outcomes["b"].Reason)

	require.Len(t, report.Profiles, 2)
	for _, p := range report.Profiles {
		assert.Equal(t, "a", p.SourceAccountID, "results only from the valid account")
		assert.Equal(t, report.RunID, p.RunID)
		assert.NotEqual(t, uuid.Nil, p.ID)
	}
	assert.Len(t, f.profiles.saved, 2)
}

func TestExecuteSearch_RevokedAccountSkippedEvenWhenValid(t *testing.T) {
	now := time.Now()
	f := newSearchFixture(25,
		model.Account{ID: "a", Status: model.AccountStatusValid, RevokedAt: &now},
	)

	_, err := f.svc.ExecuteSearch(context.Background(), model.SearchFilter{Keywords: "engineer"}, []model.Account{
		mustGet(t, f.accounts, "a"),
	})
	assert.ErrorIs(t, err, application.ErrNoEligibleAccounts)
}

func TestExecuteSearch_NoEligibleAccounts(t *testing.T) {
	f := newSearchFixture(25,
		model.Account{ID: "a", Status: model.AccountStatusExpired},
		model.Account{ID: "b", Status: model.AccountStatusInvalid},
	)

	_, err := f.svc.ExecuteSearch(context.Background(), model.SearchFilter{Keywords: "engineer"}, []model.Account{
		mustGet(t, f.accounts, "a"), mustGet(t, f.accounts, "b"),
	})
	assert.ErrorIs(t, err, application.ErrNoEligibleAccounts)
}

func TestExecuteSearch_MalformedFilterSurfaces(t *testing.T) {
	f := newSearchFixture(25, model.Account{ID: "a", Status: model.AccountStatusValid})

	_, err := f.svc.ExecuteSearch(context.Background(), model.SearchFilter{}, []model.Account{
		mustGet(t, f.accounts, "a"),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, application.ErrNoEligibleAccounts)
}

func TestExecuteSearch_QuotaExceededIsPerAccountOutcome(t *testing.T) {
	f := newSearchFixture(1,
		model.Account{ID: "a", Status: model.AccountStatusValid},
		model.Account{ID: "b", Status: model.AccountStatusValid},
	)
	// Spend account a's whole budget up front.
	require.NoError(t, f.ledger.Record(context.Background(), "a", model.ActionSearch, time.Now().UTC()))

	f.client.searchFn = func(secret string, _ model.SearchFilter) ([]model.Profile, error) {
		return []model.Profile{rawResult("urn:1", 1)}, nil
	}

	report, err := f.svc.ExecuteSearch(context.Background(), model.SearchFilter{Keywords: "engineer"}, []model.Account{
		mustGet(t, f.accounts, "a"), mustGet(t, f.accounts, "b"),
	})
	require.NoError(t, err, "quota exhaustion never fails the batch")

	assert.Equal(t, application.OutcomeFailed, report.Outcomes["a"].Kind)
	assert.Equal(t, "quota_exceeded", report.Outcomes["a"].Reason)
	assert.Equal(t, application.OutcomeSuccess, report.Outcomes["b"].Kind)
	require.Len(t, report.Profiles, 1)
	assert.Equal(t, "b", report.Profiles[0].SourceAccountID)
}

func TestExecuteSearch_AuthErrorUpdatesStatusInline(t *testing.T) {
	f := newSearchFixture(25, model.Account{ID: "a", Status: model.AccountStatusValid})
	f.client.searchFn = func(string, model.SearchFilter) ([]model.Profile, error) {
		return nil, &driven.AuthError{Kind: driven.AuthKindExpired, Reason: "session expired"}
	}

	report, err := f.svc.ExecuteSearch(context.Background(), model.SearchFilter{Keywords: "engineer"}, []model.Account{
		mustGet(t, f.accounts, "a"),
	})
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeFailed, report.Outcomes["a"].Kind)

	stored, _ := f.accounts.Get(context.Background(), "a")
	assert.Equal(t, model.AccountStatusExpired, stored.Status, "auth error at search time transitions status without a separate validation")
	assert.Equal(t, "session expired", stored.ValidationError)
}

func TestExecuteSearch_ProviderRateLimitMarksAccount(t *testing.T) {
	f := newSearchFixture(25, model.Account{ID: "a", Status: model.AccountStatusValid})
	f.client.searchFn = func(string, model.SearchFilter) ([]model.Profile, error) {
		return nil, &driven.ProviderRateLimitError{}
	}

	report, err := f.svc.ExecuteSearch(context.Background(), model.SearchFilter{Keywords: "engineer"}, []model.Account{
		mustGet(t, f.accounts, "a"),
	})
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeFailed, report.Outcomes["a"].Kind)

	stored, _ := f.accounts.Get(context.Background(), "a")
	assert.Equal(t, model.AccountStatusRateLimited, stored.Status)
}

func TestExecuteSearch_CompanyNameResolvedPerAccount(t *testing.T) {
	f := newSearchFixture(25, model.Account{ID: "a", Status: model.AccountStatusValid})

	var searchedFilter model.SearchFilter
	f.client.resolveFn = func(_, name string) (string, error) {
		require.Equal(t, "Analytical Engines Ltd", name)
		return "c-1837", nil
	}
	f.client.searchFn = func(_ string, filter model.SearchFilter) ([]model.Profile, error) {
		searchedFilter = filter
		return nil, nil
	}

	report, err := f.svc.ExecuteSearch(context.Background(), model.SearchFilter{
		Keywords:    "engineer",
		CompanyName: "Analytical Engines Ltd",
	}, []model.Account{mustGet(t, f.accounts, "a")})
	require.NoError(t, err)

	assert.Equal(t, application.OutcomeSuccess, report.Outcomes["a"].Kind)
	assert.Equal(t, "c-1837", searchedFilter.CompanyID)
	assert.Empty(t, searchedFilter.CompanyName)
}

func TestExecuteSearch_ResolutionFailureIsPerAccount(t *testing.T) {
	f := newSearchFixture(25,
		model.Account{ID: "a", Status: model.AccountStatusValid},
		model.Account{ID: "b", Status: model.AccountStatusValid},
	)
	f.client.resolveFn = func(secret, _ string) (string, error) {
		if secret == "session-token-a" {
			return "", &driven.NetworkError{Err: errors.New("lookup down")}
		}
		return "c-1837", nil
	}
	f.client.searchFn = func(string, model.SearchFilter) ([]model.Profile, error) {
		return []model.Profile{rawResult("urn:1", 1)}, nil
	}

	report, err := f.svc.ExecuteSearch(context.Background(), model.SearchFilter{
		Keywords:    "engineer",
		CompanyName: "Analytical Engines Ltd",
	}, []model.Account{mustGet(t, f.accounts, "a"), mustGet(t, f.accounts, "b")})
	require.NoError(t, err)

	assert.Equal(t, application.OutcomeFailed, report.Outcomes["a"].Kind)
	assert.Equal(t, application.OutcomeSuccess, report.Outcomes["b"].Kind)
}

func TestExecuteSearch_CancellationStopsNewAccountsOnly(t *testing.T) {
	f := newSearchFixture(25,
		model.Account{ID: "a", Status: model.AccountStatusValid},
		model.Account{ID: "b", Status: model.AccountStatusValid},
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Canceled before any account starts.

	report, err := f.svc.ExecuteSearch(ctx, model.SearchFilter{Keywords: "engineer"}, []model.Account{
		mustGet(t, f.accounts, "a"), mustGet(t, f.accounts, "b"),
	})
	require.NoError(t, err)

	assert.Equal(t, application.OutcomeSkipped, report.Outcomes["a"].Kind)
	assert.Equal(t, "canceled", report.Outcomes["a"].Reason)
	assert.Equal(t, application.OutcomeSkipped, report.Outcomes["b"].Kind)
	assert.Empty(t, f.profiles.saved)
}

func TestExecuteSearch_UpdatesLastUsedAt(t *testing.T) {
	f := newSearchFixture(25, model.Account{ID: "a", Status: model.AccountStatusValid})
	f.client.searchFn = func(string, model.SearchFilter) ([]model.Profile, error) {
		return []model.Profile{rawResult("urn:1", 1)}, nil
	}

	_, err := f.svc.ExecuteSearch(context.Background(), model.SearchFilter{Keywords: "engineer"}, []model.Account{
		mustGet(t, f.accounts, "a"),
	})
	require.NoError(t, err)

	stored, _ := f.accounts.Get(context.Background(), "a")
	assert.NotNil(t, stored.LastUsedAt)
}

func mustGet(t *testing.T, accounts *memAccounts, id string) model.Account {
	t.Helper()
	a, err := accounts.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, a)
	return *a
}
