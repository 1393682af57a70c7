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
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Upsert inserts or replaces the account row.
func (r *AccountRepo) Upsert(ctx context.Context, account model.Account) error {
	const query = `
		INSERT INTO accounts (id, status, validation_error, last_validated_at, last_used_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			validation_error = excluded.validation_error,
			last_validated_at = excluded.last_validated_at,
			last_used_at = excluded.last_used_at,
			revoked_at = excluded.revoked_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		account.ID,
		string(account.Status),
		account.ValidationError,
		formatNullableTime(account.LastValidatedAt),
		formatNullableTime(account.LastUsedAt),
		formatNullableTime(account.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert account %q: %w", account.ID, err)
	}
	return nil
}

// Get returns the account with the given ID, or nil if it does not exist.
func (r *AccountRepo) Get(ctx context.Context, id string) (*model.Account, error) {
	const query = `
		SELECT id, status, validation_error, last_validated_at, last_used_at, revoked_at
		FROM accounts
		WHERE id = ?
	`

	account, err := scanAccount(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %q: %w", id, err)
	}
	return account, nil
}

// List returns all accounts, revoked ones included, ordered by ID.
func (r *AccountRepo) List(ctx context.Context) ([]model.Account, error) {
	const query = `
		SELECT id, status, validation_error, last_validated_at, last_used_at, revoked_at
		FROM accounts
		ORDER BY id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		account         model.Account
		status          string
		lastValidatedAt sql.NullString
		lastUsedAt      sql.NullString
		revokedAt       sql.NullString
	)

	if err := row.Scan(&account.ID, &status, &account.ValidationError, &lastValidatedAt, &lastUsedAt, &revokedAt); err != nil {
		return nil, err
	}
	account.Status = model.AccountStatus(status)

	var err error
	if account.LastValidatedAt, err = parseNullableTime(lastValidatedAt); err != nil {
		return nil, fmt.Errorf("parse last_validated_at: %w", err)
	}
	if account.LastUsedAt, err = parseNullableTime(lastUsedAt); err != nil {
		return nil, fmt.Errorf("parse last_used_at: %w", err)
	}
	if account.RevokedAt, err = parseNullableTime(revokedAt); err != nil {
		return nil, fmt.Errorf("parse revoked_at: %w", err)
	}

	return &account, nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
