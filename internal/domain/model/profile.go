package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is one search observation of a person, as seen through a single
// account's session. IdentityKey is the remote system's stable per-person
// identifier and is the only field deduplication keys on.
type Profile struct {
	ID               uuid.UUID
	IdentityKey      string
	FirstName        string
	LastName         string
	Headline         string
	Location         string
	Company          string
	Title            string
	ProfileURL       string
	Degree           int // Network distance: 1, 2, or 3.
	SourceAccountID  string
	MutualConnection string
	RunID            uuid.UUID
	FoundAt          time.Time
}

// FullName returns the display name for the profile.
func (p Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ProvenanceEntry records that a given account found an identity at a given
// network degree.
type ProvenanceEntry struct {
	AccountID string
	Degree    int
	FoundAt   time.Time
}

// AggregatedProfile is the deduplicated view of one identity: a single
// representative observation plus the full set of (account, degree) pairs
// that found it.
type AggregatedProfile struct {
	Representative Profile
	Provenance     []ProvenanceEntry
}
