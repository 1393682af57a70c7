package driven

import (
	"context"
	"time"

	"github.com/mwhitlock/rolodex/internal/domain/model"
)

// ActionLedger is the driven port for the append-only action history.
// There are no update or delete operations; rate and quota state is always
// derived by querying entries. A recorded entry must be visible to
// subsequent reads within the same process immediately.
type ActionLedger interface {
	// Record appends one entry for the given account and action.
	Record(ctx context.Context, accountID string, action model.ActionType, at time.Time) error

	// CountSince returns the number of entries for (account, action) whose
	// timestamp is at or after since.
	CountSince(ctx context.Context, accountID string, action model.ActionType, since time.Time) (int, error)

	// LastTimestamp returns the most recent entry timestamp for
	// (account, action), or nil if none has been recorded.
	LastTimestamp(ctx context.Context, accountID string, action model.ActionType) (*time.Time, error)
}
