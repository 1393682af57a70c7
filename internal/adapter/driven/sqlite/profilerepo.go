package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitlock/rolodex/internal/domain/model"
	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProfileStore = (*ProfileRepo)(nil)

// ProfileRepo is the SQLite implementation of the ProfileStore port. Save is
// insert-only: every observation is its own row, so concurrent writers from
// different accounts never contend on shared rows.
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a new ProfileRepo backed by the given DB.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Save inserts one profile observation.
func (r *ProfileRepo) Save(ctx context.Context, p model.Profile) error {
	const query = `
		INSERT INTO profiles (
			id, identity_key, first_name, last_name, headline, location,
			company, title, profile_url, degree, source_account_id,
			mutual_connection, run_id, found_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		p.ID.String(), p.IdentityKey, p.FirstName, p.LastName, p.Headline, p.Location,
		p.Company, p.Title, p.ProfileURL, p.Degree, p.SourceAccountID,
		p.MutualConnection, p.RunID.String(), p.FoundAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save profile %q: %w", p.IdentityKey, err)
	}
	return nil
}

// Query returns profiles matching the given filters, ordered by found_at
// then id for a stable result.
func (r *ProfileRepo) Query(ctx context.Context, q driven.ProfileQuery) ([]model.Profile, error) {
	var (
		conds []string
		args  []any
	)
	if q.RunID != uuid.Nil {
		conds = append(conds, "run_id = ?")
		args = append(args, q.RunID.String())
	}
	if q.AccountID != "" {
		conds = append(conds, "source_account_id = ?")
		args = append(args, q.AccountID)
	}

	query := `
		SELECT id, identity_key, first_name, last_name, headline, location,
		       company, title, profile_url, degree, source_account_id,
		       mutual_connection, run_id, found_at
		FROM profiles
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY found_at, id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var (
			p       model.Profile
			id      string
			runID   string
			foundAt string
		)
		if err := rows.Scan(
			&id, &p.IdentityKey, &p.FirstName, &p.LastName, &p.Headline, &p.Location,
			&p.Company, &p.Title, &p.ProfileURL, &p.Degree, &p.SourceAccountID,
			&p.MutualConnection, &runID, &foundAt,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}

		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse profile id %q: %w", id, err)
		}
		if p.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", runID, err)
		}
		if p.FoundAt, err = parseTime(foundAt); err != nil {
			return nil, fmt.Errorf("parse found_at: %w", err)
		}

		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

// Stats aggregates the stored profile pool for status reporting.
func (r *ProfileRepo) Stats(ctx context.Context) (model.ProfileStats, error) {
	stats := model.ProfileStats{DegreeCounts: make(map[int]int)}

	const totalsQuery = `
		SELECT COUNT(*),
		       COUNT(DISTINCT CASE WHEN company != '' THEN company END),
		       COUNT(DISTINCT CASE WHEN location != '' THEN location END),
		       COUNT(DISTINCT run_id)
		FROM profiles
	`
	err := r.db.Reader.QueryRowContext(ctx, totalsQuery).Scan(
		&stats.TotalProfiles, &stats.UniqueCompanies, &stats.UniqueLocations, &stats.RunCount,
	)
	if err != nil {
		return model.ProfileStats{}, fmt.Errorf("profile totals: %w", err)
	}

	const degreesQuery = `SELECT degree, COUNT(*) FROM profiles GROUP BY degree`
	rows, err := r.db.Reader.QueryContext(ctx, degreesQuery)
	if err != nil {
		return model.ProfileStats{}, fmt.Errorf("degree distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var degree, count int
		if err := rows.Scan(&degree, &count); err != nil {
			return model.ProfileStats{}, fmt.Errorf("scan degree count: %w", err)
		}
		stats.DegreeCounts[degree] = count
	}
	if err := rows.Err(); err != nil {
		return model.ProfileStats{}, fmt.Errorf("iterate degree counts: %w", err)
	}

	return stats, nil
}
