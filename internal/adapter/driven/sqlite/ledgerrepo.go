package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mwhitlock/rolodex/internal/domain/model"
	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ActionLedger = (*LedgerRepo)(nil)

// LedgerRepo is the SQLite implementation of the ActionLedger port. Rows are
// append-only; there are no update or delete statements in this file on
// purpose. Timestamps are stored as unix nanoseconds so SQL ordering and
// range comparisons are exact.
type LedgerRepo struct {
	db *DB
}

// NewLedgerRepo creates a new LedgerRepo backed by the given DB.
func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// Record appends one ledger entry.
func (r *LedgerRepo) Record(ctx context.Context, accountID string, action model.ActionType, at time.Time) error {
	const query = `INSERT INTO action_ledger (account_id, action, ts) VALUES (?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query, accountID, string(action), at.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("record %s action for %q: %w", action, accountID, err)
	}
	return nil
}

// CountSince returns the number of entries for (account, action) at or
// after since.
func (r *LedgerRepo) CountSince(ctx context.Context, accountID string, action model.ActionType, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM action_ledger WHERE account_id = ? AND action = ? AND ts >= ?`

	var count int
	err := r.db.Reader.QueryRowContext(ctx, query, accountID, string(action), since.UTC().UnixNano()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s actions for %q: %w", action, accountID, err)
	}
	return count, nil
}

// LastTimestamp returns the most recent entry timestamp for
// (account, action), or nil if none exists.
func (r *LedgerRepo) LastTimestamp(ctx context.Context, accountID string, action model.ActionType) (*time.Time, error) {
	const query = `SELECT ts FROM action_ledger WHERE account_id = ? AND action = ? ORDER BY ts DESC LIMIT 1`

	var nanos int64
	err := r.db.Reader.QueryRowContext(ctx, query, accountID, string(action)).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last %s timestamp for %q: %w", action, accountID, err)
	}

	t := time.Unix(0, nanos).UTC()
	return &t, nil
}
