package application

import (
	"errors"
	"fmt"

	"github.com/mwhitlock/rolodex/internal/domain/model"
)

// ErrNoEligibleAccounts is returned by ExecuteSearch when no account is
// valid and unrevoked. It is the only per-batch failure that surfaces to
// the caller; everything else lands in the per-account outcome report.
var ErrNoEligibleAccounts = errors.New("no eligible accounts: none are valid and unrevoked")

// QuotaExceededError reports that an account has spent its daily action
// budget. It fails fast: the limiter never sleeps waiting for the next
// UTC day.
type QuotaExceededError struct {
	AccountID string
	Action    model.ActionType
	Budget    int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("account %q reached daily %s budget of %d", e.AccountID, e.Action, e.Budget)
}
