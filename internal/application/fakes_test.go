package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitlock/rolodex/internal/domain/model"
	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

// memLedger is an in-memory ActionLedger for tests.
type memLedger struct {
	mu      sync.Mutex
	entries []model.ActionEntry
}

func (l *memLedger) Record(_ context.Context, accountID string, action model.ActionType, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, model.ActionEntry{AccountID: accountID, Action: action, Timestamp: at})
	return nil
}

func (l *memLedger) CountSince(_ context.Context, accountID string, action model.ActionType, since time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var count int
	for _, e := range l.entries {
		if e.AccountID == accountID && e.Action == action && !e.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (l *memLedger) LastTimestamp(_ context.Context, accountID string, action model.ActionType) (*time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var last *time.Time
	for _, e := range l.entries {
		if e.AccountID == accountID && e.Action == action {
			if last == nil || e.Timestamp.After(*last) {
				ts := e.Timestamp
				last = &ts
			}
		}
	}
	return last, nil
}

func (l *memLedger) timestamps(accountID string, action model.ActionType) []time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []time.Time
	for _, e := range l.entries {
		if e.AccountID == accountID && e.Action == action {
			out = append(out, e.Timestamp)
		}
	}
	return out
}

var _ driven.ActionLedger = (*memLedger)(nil)

// memAccounts is an in-memory AccountStore for tests.
type memAccounts struct {
	mu sync.Mutex
	m  map[string]model.Account
}

func newMemAccounts(accounts ...model.Account) *memAccounts {
	s := &memAccounts{m: make(map[string]model.Account)}
	for _, a := range accounts {
		s.m[a.ID] = a
	}
	return s
}

func (s *memAccounts) Upsert(_ context.Context, account model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[account.ID] = account
	return nil
}

func (s *memAccounts) Get(_ context.Context, id string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.m[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *memAccounts) List(_ context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Account, 0, len(s.m))
	for _, a := range s.m {
		out = append(out, a)
	}
	return out, nil
}

var _ driven.AccountStore = (*memAccounts)(nil)

// memSecrets is an in-memory SecretStore for tests.
type memSecrets struct {
	m map[string]string
}

func newMemSecrets(pairs map[string]string) *memSecrets {
	if pairs == nil {
		pairs = make(map[string]string)
	}
	return &memSecrets{m: pairs}
}

func (s *memSecrets) Put(_ context.Context, label, secret string) error {
	s.m[label] = secret
	return nil
}

func (s *memSecrets) Get(_ context.Context, label string) (string, error) {
	return s.m[label], nil
}

func (s *memSecrets) List(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(s.m))
	for label := range s.m {
		out = append(out, label)
	}
	return out, nil
}

var _ driven.SecretStore = (*memSecrets)(nil)

// fakeClient is a programmable NetworkClient for tests.
type fakeClient struct {
	mu         sync.Mutex
	probeFn    func(secret string) error
	searchFn   func(secret string, filter model.SearchFilter) ([]model.Profile, error)
	resolveFn  func(secret, name string) (string, error)
	probeCalls []string
}

func (c *fakeClient) Probe(_ context.Context, secret string) error {
	c.mu.Lock()
	c.probeCalls = append(c.probeCalls, secret)
	c.mu.Unlock()
	if c.probeFn == nil {
		return nil
	}
	return c.probeFn(secret)
}

func (c *fakeClient) Search(_ context.Context, secret string, filter model.SearchFilter) ([]model.Profile, error) {
	if c.searchFn == nil {
		return nil, nil
	}
	return c.searchFn(secret, filter)
}

func (c *fakeClient) ResolveCompany(_ context.Context, secret, name string) (string, error) {
	if c.resolveFn == nil {
		return "", nil
	}
	return c.resolveFn(secret, name)
}

var _ driven.NetworkClient = (*fakeClient)(nil)

// memProfiles is an in-memory ProfileStore for tests.
type memProfiles struct {
	mu    sync.Mutex
	saved []model.Profile
}

func (s *memProfiles) Save(_ context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, p)
	return nil
}

func (s *memProfiles) Query(_ context.Context, q driven.ProfileQuery) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Profile
	for _, p := range s.saved {
		if q.RunID != uuid.Nil && p.RunID != q.RunID {
			continue
		}
		if q.AccountID != "" && p.SourceAccountID != q.AccountID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memProfiles) Stats(_ context.Context) (model.ProfileStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ProfileStats{TotalProfiles: len(s.saved)}, nil
}

var _ driven.ProfileStore = (*memProfiles)(nil)

// memSink captures the last Write call.
type memSink struct {
	columns []string
	rows    [][]string
}

func (s *memSink) Write(_ context.Context, columns []string, rows [][]string) error {
	s.columns = columns
	s.rows = rows
	return nil
}

var _ driven.ExportSink = (*memSink)(nil)
