package model

import "time"

// ActionType identifies a rate-limited remote action.
type ActionType string

const (
	ActionSearch      ActionType = "search"
	ActionValidate    ActionType = "validate"
	ActionProfileView ActionType = "profile_view"
)

// ActionEntry is one append-only ledger row. Entries are never updated or
// deleted; daily quota and spacing are always derived by querying them.
type ActionEntry struct {
	ID        int64
	AccountID string
	Action    ActionType
	Timestamp time.Time
}
