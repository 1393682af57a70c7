package driven

import (
	"context"
	"errors"
)

// ErrEncryptionKeyNotSet is returned by SecretStore operations when
// ROLODEX_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set ROLODEX_SECRET_KEY")

// MinSecretLength is the shortest session secret accepted by Put. Anything
// shorter cannot be a real session token.
const MinSecretLength = 10

// SecretStore defines the driven port for encrypted session secret storage.
// The adapter layer is responsible for encryption/decryption; this interface
// operates on plaintext values at the domain boundary. Secrets are fetched
// per use and never logged.
type SecretStore interface {
	// Put stores or replaces the secret for the given account label.
	// Returns ErrEncryptionKeyNotSet if the adapter was constructed without
	// an encryption key.
	Put(ctx context.Context, label, secret string) error

	// Get retrieves the plaintext secret for the given account label.
	// Returns ("", nil) if no secret exists for that label.
	Get(ctx context.Context, label string) (string, error)

	// List returns the labels of all stored secrets. Values are never
	// returned in bulk.
	List(ctx context.Context) ([]string, error)
}
