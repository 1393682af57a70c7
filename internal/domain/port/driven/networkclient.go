package driven

import (
	"context"

	"github.com/mwhitlock/rolodex/internal/domain/model"
)

// NetworkClient is the driven port for the remote people-search service.
// All methods take the session secret per call; implementations must not
// retain it. Failures are reported through the typed errors in this
// package: *AuthError, *ProviderRateLimitError, *NetworkError.
type NetworkClient interface {
	// Probe checks whether the session secret is still accepted by the
	// remote service. A nil return means the session is live.
	Probe(ctx context.Context, secret string) error

	// Search runs a people search under the given session and returns the
	// mapped observations. SourceAccountID and RunID are left zero; the
	// orchestrator tags them.
	Search(ctx context.Context, secret string, filter model.SearchFilter) ([]model.Profile, error)

	// ResolveCompany resolves a company name to the remote service's
	// company ID. Returns ("", nil) when the name is unknown.
	ResolveCompany(ctx context.Context, secret, name string) (string, error)
}
