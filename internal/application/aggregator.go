package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/mwhitlock/rolodex/internal/domain/model"
	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

// DedupScope selects which observation pool an aggregation run reads: a
// single search run, or every run ever persisted.
type DedupScope string

const (
	DedupScopeRun    DedupScope = "run"
	DedupScopeGlobal DedupScope = "global"
)

// Aggregator merges observations from multiple accounts into a canonical,
// degree-preferring result set and renders it to the export sink.
type Aggregator struct {
	profiles driven.ProfileStore
	sink     driven.ExportSink
	scope    DedupScope
}

// NewAggregator creates an Aggregator reading from the given store and
// writing to the given sink.
func NewAggregator(profiles driven.ProfileStore, sink driven.ExportSink, scope DedupScope) *Aggregator {
	return &Aggregator{profiles: profiles, sink: sink, scope: scope}
}

// Deduplicate merges a set of observations by identity key. Within each
// group the representative is the lowest-degree observation, ties broken by
// the most recent FoundAt; its mutual connection is the one kept. Provenance
// collects every distinct (account, degree) pair for the identity, ordered
// by degree ascending then FoundAt descending. Two different identity keys
// are never merged, name collisions included. The function is pure and
// idempotent over its input set.
func Deduplicate(profiles []model.Profile) []model.AggregatedProfile {
	groups := make(map[string][]model.Profile)
	var order []string
	for _, p := range profiles {
		if _, seen := groups[p.IdentityKey]; !seen {
			order = append(order, p.IdentityKey)
		}
		groups[p.IdentityKey] = append(groups[p.IdentityKey], p)
	}

	out := make([]model.AggregatedProfile, 0, len(groups))
	for _, key := range order {
		group := groups[key]

		rep := group[0]
		for _, p := range group[1:] {
			if p.Degree < rep.Degree || (p.Degree == rep.Degree && p.FoundAt.After(rep.FoundAt)) {
				rep = p
			}
		}

		provenance := buildProvenance(group)
		out = append(out, model.AggregatedProfile{Representative: rep, Provenance: provenance})
	}
	return out
}

// buildProvenance returns the distinct (account, degree) pairs of a group,
// ordered by degree ascending then FoundAt descending. For a repeated pair
// the most recent sighting's timestamp is kept.
func buildProvenance(group []model.Profile) []model.ProvenanceEntry {
	type pairKey struct {
		account string
		degree  int
	}
	latest := make(map[pairKey]model.ProvenanceEntry)
	for _, p := range group {
		k := pairKey{account: p.SourceAccountID, degree: p.Degree}
		if cur, ok := latest[k]; !ok || p.FoundAt.After(cur.FoundAt) {
			latest[k] = model.ProvenanceEntry{AccountID: p.SourceAccountID, Degree: p.Degree, FoundAt: p.FoundAt}
		}
	}

	entries := make([]model.ProvenanceEntry, 0, len(latest))
	for _, e := range latest {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Degree != entries[j].Degree {
			return entries[i].Degree < entries[j].Degree
		}
		if !entries[i].FoundAt.Equal(entries[j].FoundAt) {
			return entries[i].FoundAt.After(entries[j].FoundAt)
		}
		return entries[i].AccountID < entries[j].AccountID
	})
	return entries
}

// DeduplicateRun reads the configured scope from the store and deduplicates
// it. runID is ignored when the aggregator is scoped to the global pool.
func (a *Aggregator) DeduplicateRun(ctx context.Context, runID uuid.UUID) ([]model.AggregatedProfile, error) {
	q := driven.ProfileQuery{}
	if a.scope == DedupScopeRun {
		q.RunID = runID
	}

	profiles, err := a.profiles.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	return Deduplicate(profiles), nil
}

// exportColumns is the header row of the tabular export.
var exportColumns = []string{
	"name", "first_name", "last_name", "headline", "company", "title",
	"location", "profile_url", "degree", "found_via", "found_at",
}

// Export renders the deduplicated scope to the sink in a deterministic
// order: degree ascending, then full name ascending.
func (a *Aggregator) Export(ctx context.Context, runID uuid.UUID) error {
	aggregated, err := a.DeduplicateRun(ctx, runID)
	if err != nil {
		return err
	}

	sort.Slice(aggregated, func(i, j int) bool {
		ri, rj := aggregated[i].Representative, aggregated[j].Representative
		if ri.Degree != rj.Degree {
			return ri.Degree < rj.Degree
		}
		if ri.FullName() != rj.FullName() {
			return ri.FullName() < rj.FullName()
		}
		return ri.IdentityKey < rj.IdentityKey
	})

	rows := make([][]string, 0, len(aggregated))
	for _, ap := range aggregated {
		rep := ap.Representative
		rows = append(rows, []string{
			rep.FullName(),
			rep.FirstName,
			rep.LastName,
			rep.Headline,
			rep.Company,
			rep.Title,
			rep.Location,
			rep.ProfileURL,
			fmt.Sprintf("%d", rep.Degree),
			FormatProvenance(ap.Provenance),
			rep.FoundAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}

	if err := a.sink.Write(ctx, exportColumns, rows); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	slog.Info("export complete", "rows", len(rows), "scope", string(a.scope))
	return nil
}

// FormatProvenance renders provenance as the human-readable "found via"
// column, e.g. "work (1st); personal (2nd)".
func FormatProvenance(entries []model.ProvenanceEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s (%s)", e.AccountID, ordinalDegree(e.Degree)))
	}
	return strings.Join(parts, "; ")
}

func ordinalDegree(d int) string {
	switch d {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", d)
	}
}
