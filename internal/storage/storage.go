// Package storage provides tiered secret storage for Haven.
//
// Secrets are persisted through one of several storage tiers of
// decreasing safety: the OS keychain, an encrypted session store, a
// reversibly-encoded durable store, and a process-lifetime memory
// store. The tier manager probes each tier with a round-trip self-test
// at startup and pins the first one that works.
package storage

import (
	"strings"

	havenerr "github.com/havenhq/haven/pkg/errors"
)

// Tier names, in probe order.
const (
	TierKeychain  = "keychain"
	TierEncrypted = "encrypted"
	TierEncoded   = "encoded"
	TierMemory    = "memory"

	// TierPlain stores secrets in plaintext on disk. It is never
	// auto-selected: it must be forced by name, and selection is
	// logged as a warning.
	TierPlain = "plain"
)

// Backend is the contract every storage tier implements. All tiers
// honor the same per-key semantics:
//
//   - SetItem rejects empty or whitespace-only values before any I/O.
//   - GetItem on a corrupted or undecryptable record removes the
//     record and reports ErrKeyNotFound instead of a decode error.
//   - Keys returns the backing store's own key enumeration, so callers
//     can prefix-filter regardless of which tier is active.
type Backend interface {
	// Name returns the tier name.
	Name() string

	// SetItem stores a value under key.
	SetItem(key, value string) error

	// GetItem retrieves the value for key.
	// Returns ErrKeyNotFound when absent or unrecoverable.
	GetItem(key string) (string, error)

	// RemoveItem deletes a key. Removing an absent key is not an error.
	RemoveItem(key string) error

	// HasItem reports whether key holds a readable value.
	HasItem(key string) bool

	// Clear removes all keys held by this tier.
	Clear() error

	// Keys returns all stored keys.
	Keys() ([]string, error)
}

// validateItem checks the shared write-time contract.
func validateItem(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return havenerr.WithDetails(havenerr.ErrInvalidInput, map[string]string{
			"reason": "key must not be empty",
		})
	}
	if strings.TrimSpace(value) == "" {
		return havenerr.ErrEmptyValue
	}
	return nil
}
