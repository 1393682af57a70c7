// Package application contains use-case orchestration services.
package application

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/mwhitlock/rolodex/internal/domain/model"
	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

// RateLimiterConfig carries the per-account pacing knobs. DailyBudget is the
// action cap per account per UTC calendar day; MinDelay and MaxDelay are the
// inclusive bounds for the jittered spacing between consecutive actions.
type RateLimiterConfig struct {
	DailyBudget int
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

// RateLimiter enforces the daily budget and human-like spacing for each
// account, deriving all state from the append-only action ledger. The whole
// check-wait-record sequence is serialized per account; distinct accounts
// proceed fully in parallel.
type RateLimiter struct {
	ledger driven.ActionLedger
	cfg    RateLimiterConfig
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRateLimiter creates a RateLimiter on top of the given ledger.
func NewRateLimiter(ledger driven.ActionLedger, cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		ledger: ledger,
		cfg:    cfg,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing actions for one account, creating it
// on first use. A keyed table rather than one global lock so accounts do not
// throttle each other.
func (r *RateLimiter) lockFor(accountID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[accountID] = l
	}
	return l
}

// startOfUTCDay returns midnight UTC of the day containing t. The budget
// boundary is the UTC calendar day, not local wall clock.
func startOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// CanPerform reports whether the account still has budget for the action in
// the current UTC day.
func (r *RateLimiter) CanPerform(ctx context.Context, accountID string, action model.ActionType) (bool, error) {
	count, err := r.ledger.CountSince(ctx, accountID, action, startOfUTCDay(r.now()))
	if err != nil {
		return false, err
	}
	return count < r.cfg.DailyBudget, nil
}

// Remaining returns how many actions the account may still perform today.
func (r *RateLimiter) Remaining(ctx context.Context, accountID string, action model.ActionType) (int, error) {
	count, err := r.ledger.CountSince(ctx, accountID, action, startOfUTCDay(r.now()))
	if err != nil {
		return 0, err
	}
	remaining := r.cfg.DailyBudget - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// NextAllowedTime returns the soonest the account could act again, as of this
// call: the last recorded action plus a fresh uniform jitter draw in
// [MinDelay, MaxDelay]. The draw is never cached; two calls may return
// different times. The zero time means the account may act immediately.
func (r *RateLimiter) NextAllowedTime(ctx context.Context, accountID string, action model.ActionType) (time.Time, error) {
	last, err := r.ledger.LastTimestamp(ctx, accountID, action)
	if err != nil {
		return time.Time{}, err
	}
	if last == nil {
		return time.Time{}, nil
	}
	return last.Add(r.jitter()), nil
}

// jitter draws a uniform delay in [MinDelay, MaxDelay], bounds inclusive.
func (r *RateLimiter) jitter() time.Duration {
	span := r.cfg.MaxDelay - r.cfg.MinDelay
	if span <= 0 {
		return r.cfg.MinDelay
	}
	return r.cfg.MinDelay + time.Duration(rand.Int63n(int64(span)+1))
}

// CheckAndProceed is the composite gate called before every remote action.
// It fails immediately with *QuotaExceededError when the daily budget is
// spent, otherwise waits out any owed spacing delay and records the action.
// The sequence holds the account's lock throughout, so two concurrent
// callers cannot both pass the check before either records.
func (r *RateLimiter) CheckAndProceed(ctx context.Context, accountID string, action model.ActionType) error {
	l := r.lockFor(accountID)
	l.Lock()
	defer l.Unlock()

	ok, err := r.CanPerform(ctx, accountID, action)
	if err != nil {
		return err
	}
	if !ok {
		return &QuotaExceededError{AccountID: accountID, Action: action, Budget: r.cfg.DailyBudget}
	}

	next, err := r.NextAllowedTime(ctx, accountID, action)
	if err != nil {
		return err
	}
	if owed := next.Sub(r.now()); owed > 0 {
		if err := r.wait(ctx, owed); err != nil {
			return err
		}
	}

	return r.ledger.Record(ctx, accountID, action, r.now())
}

// wait suspends the caller for d, or returns early when ctx is canceled.
func (r *RateLimiter) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
