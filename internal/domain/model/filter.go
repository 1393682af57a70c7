package model

import "fmt"

// Network degree bounds accepted in search filters.
const (
	DegreeFirst  = 1
	DegreeSecond = 2
	DegreeThird  = 3
)

// SearchFilter describes one people search. When CompanyName is set and
// CompanyID is empty, the orchestrator resolves the name to an ID through
// the account's own session before searching.
type SearchFilter struct {
	Keywords    string
	CompanyID   string
	CompanyName string
	Location    string
	Degrees     []int
	Limit       int
}

// Validate checks the filter for contract violations. A malformed filter is
// a programming error and surfaces to the caller rather than being folded
// into per-account outcomes.
func (f SearchFilter) Validate() error {
	if f.Keywords == "" && f.CompanyID == "" && f.CompanyName == "" {
		return fmt.Errorf("search filter requires keywords or a company")
	}
	if f.Limit < 0 || f.Limit > 1000 {
		return fmt.Errorf("search filter limit %d out of range [0, 1000]", f.Limit)
	}
	for _, d := range f.Degrees {
		if d < DegreeFirst || d > DegreeThird {
			return fmt.Errorf("search filter degree %d out of range [1, 3]", d)
		}
	}
	return nil
}

// EffectiveDegrees returns the degrees to search, defaulting to 1st and 2nd
// connections when the filter does not specify any.
func (f SearchFilter) EffectiveDegrees() []int {
	if len(f.Degrees) == 0 {
		return []int{DegreeFirst, DegreeSecond}
	}
	return f.Degrees
}

// EffectiveLimit returns the result cap, defaulting to 100.
func (f SearchFilter) EffectiveLimit() int {
	if f.Limit == 0 {
		return 100
	}
	return f.Limit
}
