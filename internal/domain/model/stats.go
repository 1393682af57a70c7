package model

// ProfileStats summarizes the stored profile pool for status reporting.
type ProfileStats struct {
	TotalProfiles   int
	UniqueCompanies int
	UniqueLocations int
	RunCount        int
	DegreeCounts    map[int]int
}
