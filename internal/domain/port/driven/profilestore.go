package driven

import (
	"context"

	"github.com/google/uuid"

	"github.com/mwhitlock/rolodex/internal/domain/model"
)

// ProfileQuery narrows a profile store read. Zero values mean "no filter";
// RunID scopes to one search run, AccountID to one source account.
type ProfileQuery struct {
	RunID     uuid.UUID
	AccountID string
	Limit     int
}

// ProfileStore defines the driven port for search result persistence.
// Save is insert-only: each observation is its own row, so concurrent
// writers from different accounts never contend on shared rows.
type ProfileStore interface {
	Save(ctx context.Context, profile model.Profile) error
	Query(ctx context.Context, q ProfileQuery) ([]model.Profile, error)
	Stats(ctx context.Context) (model.ProfileStats, error)
}
