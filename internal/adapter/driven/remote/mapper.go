package remote

import (
	"strings"
	"time"

	"github.com/mwhitlock/rolodex/internal/domain/model"
)

// rawRecord is one person element as returned by the search endpoint.
type rawRecord struct {
	URNID            string `json:"urn_id"`
	PublicID         string `json:"public_id"`
	Name             string `json:"name"`
	JobTitle         string `json:"jobtitle"`
	Location         string `json:"location"`
	Company          string `json:"company"`
	Title            string `json:"title"`
	Distance         string `json:"distance"`
	MutualConnection string `json:"mutual_connection"`
	ProfileURL       string `json:"profile_url"`
}

// mapRecord converts a raw search element to a domain profile. The URN is
// the stable per-person identifier; SourceAccountID and RunID are tagged by
// the orchestrator, not here.
func mapRecord(rec rawRecord) model.Profile {
	first, last := splitName(rec.Name)

	return model.Profile{
		IdentityKey:      rec.URNID,
		FirstName:        first,
		LastName:         last,
		Headline:         rec.JobTitle,
		Location:         rec.Location,
		Company:          rec.Company,
		Title:            rec.Title,
		ProfileURL:       rec.ProfileURL,
		Degree:           parseDegree(rec.Distance),
		MutualConnection: rec.MutualConnection,
		FoundAt:          time.Now().UTC(),
	}
}

// splitName splits a display name into first and last parts. A single-word
// name maps to (word, "").
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// parseDegree converts the service's distance code to a numeric degree.
// Unknown or missing codes map to 3rd degree, the weakest claim.
func parseDegree(distance string) int {
	switch distance {
	case "DISTANCE_1":
		return model.DegreeFirst
	case "DISTANCE_2":
		return model.DegreeSecond
	case "DISTANCE_3", "OUT_OF_NETWORK":
		return model.DegreeThird
	default:
		return model.DegreeThird
	}
}
