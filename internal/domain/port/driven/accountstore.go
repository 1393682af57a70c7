package driven

import (
	"context"

	"github.com/mwhitlock/rolodex/internal/domain/model"
)

// AccountStore defines the driven port for account lifecycle persistence.
// Accounts are soft-revoked, never deleted, so historical provenance stays
// resolvable.
type AccountStore interface {
	// Upsert inserts or replaces the account row.
	Upsert(ctx context.Context, account model.Account) error

	// Get returns the account with the given ID, or nil if it does not exist.
	Get(ctx context.Context, id string) (*model.Account, error)

	// List returns all accounts, revoked ones included, ordered by ID.
	List(ctx context.Context) ([]model.Account, error)
}
