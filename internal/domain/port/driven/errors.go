package driven

import (
	"fmt"
	"time"
)

// AuthErrorKind distinguishes a lapsed session from revoked or bad
// credentials. The network adapter must tell the two apart because they
// drive different lifecycle transitions.
type AuthErrorKind string

const (
	AuthKindExpired AuthErrorKind = "expired"
	AuthKindInvalid AuthErrorKind = "invalid"
)

// AuthError reports that the remote service rejected the account session.
type AuthError struct {
	Kind   AuthErrorKind
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth rejected (%s): %s", e.Kind, e.Reason)
}

// ProviderRateLimitError reports remote-side throttling, distinct from the
// local daily budget. RetryAfter is zero when the service gave no hint.
type ProviderRateLimitError struct {
	RetryAfter time.Duration
}

func (e *ProviderRateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider rate limit hit, retry after %s", e.RetryAfter)
	}
	return "provider rate limit hit"
}

// NetworkError wraps a transient transport failure. It carries no validity
// signal: callers must leave account status untouched when they see one.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
