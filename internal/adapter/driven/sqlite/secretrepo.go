package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SecretStore = (*SecretRepo)(nil)

// SecretRepo is the SQLite implementation of the SecretStore port. Session
// secrets are encrypted with AES-256-GCM before write and decrypted after
// read; plaintext never touches the database file.
type SecretRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewSecretRepo creates a new SecretRepo. key must be 32 bytes for
// AES-256-GCM, or nil to disable secret storage (all operations will return
// driven.ErrEncryptionKeyNotSet).
func NewSecretRepo(db *DB, key []byte) *SecretRepo {
	return &SecretRepo{db: db, key: key}
}

// Put stores or replaces the secret for the given account label. Secrets
// shorter than driven.MinSecretLength are rejected before they reach the
// keyring; they cannot be real session tokens.
func (r *SecretRepo) Put(ctx context.Context, label, secret string) error {
	if len(strings.TrimSpace(secret)) < driven.MinSecretLength {
		return fmt.Errorf("secret for %q too short: need at least %d characters", label, driven.MinSecretLength)
	}

	encrypted, err := r.encrypt(secret)
	if err != nil {
		return err
	}

	const query = `INSERT OR REPLACE INTO secrets (label, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`
	_, err = r.db.Writer.ExecContext(ctx, query, label, encrypted)
	if err != nil {
		return fmt.Errorf("put secret %q: %w", label, err)
	}
	return nil
}

// Get retrieves the plaintext secret for the given account label.
// Returns ("", nil) if no secret exists for that label.
func (r *SecretRepo) Get(ctx context.Context, label string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT value FROM secrets WHERE label = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, label).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get secret %q: %w", label, err)
	}

	plaintext, err := r.decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt secret %q: %w", label, err)
	}
	return plaintext, nil
}

// List returns the labels of all stored secrets, ordered by label. Values
// are never returned in bulk.
func (r *SecretRepo) List(ctx context.Context) ([]string, error) {
	const query = `SELECT label FROM secrets ORDER BY label`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan secret label: %w", err)
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate secret labels: %w", err)
	}

	return labels, nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded
// string containing the nonce (12 bytes) prepended to the ciphertext.
func (r *SecretRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *SecretRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
