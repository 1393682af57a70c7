package model

import "time"

// AccountStatus represents the lifecycle state of a stored account session.
type AccountStatus string

const (
	AccountStatusUnknown     AccountStatus = "unknown"
	AccountStatusValid       AccountStatus = "valid"
	AccountStatusExpired     AccountStatus = "expired"
	AccountStatusInvalid     AccountStatus = "invalid"
	AccountStatusRateLimited AccountStatus = "rate_limited"
)

// Account identifies one network login under which searches execute. The
// session secret itself lives in the SecretStore, keyed by Account.ID; the
// account row only carries lifecycle state.
type Account struct {
	ID              string
	Status          AccountStatus
	ValidationError string
	LastValidatedAt *time.Time
	LastUsedAt      *time.Time
	RevokedAt       *time.Time
}

// Revoked reports whether the account has been permanently removed from
// active use. Revocation is terminal; revoked accounts are never selected
// regardless of status.
func (a Account) Revoked() bool {
	return a.RevokedAt != nil
}

// Eligible reports whether the account may be used for a search right now.
func (a Account) Eligible() bool {
	return a.Status == AccountStatusValid && !a.Revoked()
}

// IsStale reports whether the account's last successful validation is older
// than staleDays. An account that has never validated successfully is stale.
func (a Account) IsStale(now time.Time, staleDays int) bool {
	if a.LastValidatedAt == nil {
		return true
	}
	return now.Sub(*a.LastValidatedAt) > time.Duration(staleDays)*24*time.Hour
}
