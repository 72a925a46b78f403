package storage

import (
	"sort"
	"strings"

	"github.com/havenhq/haven/internal/metrics"
	havenerr "github.com/havenhq/haven/pkg/errors"
)

// apiKeyPrefix namespaces API keys inside the shared backend so Clear
// and List never touch unrelated records.
const apiKeyPrefix = "api_key_"

// KeyStore is the API-key facade over a pinned storage tier. Keys are
// namespaced per provider name.
type KeyStore struct {
	backend Backend
}

// NewKeyStore wraps a backend in the API-key namespace.
func NewKeyStore(backend Backend) *KeyStore {
	return &KeyStore{backend: backend}
}

// Set stores an API key for a provider. Empty or whitespace-only
// values are rejected before any storage write occurs.
func (s *KeyStore) Set(provider, value string) error {
	if strings.TrimSpace(provider) == "" {
		return havenerr.WithDetails(havenerr.ErrInvalidInput, map[string]string{
			"field": "provider",
		})
	}
	if strings.TrimSpace(value) == "" {
		return havenerr.ErrEmptyValue
	}
	err := s.backend.SetItem(apiKeyPrefix+provider, value)
	metrics.Global.RecordStorageWrite(err)
	return err
}

// Get returns the API key for a provider, or ErrKeyNotFound.
func (s *KeyStore) Get(provider string) (string, error) {
	value, err := s.backend.GetItem(apiKeyPrefix + provider)
	metrics.Global.RecordStorageRead(err)
	return value, err
}

// Has reports whether a readable key exists for the provider.
func (s *KeyStore) Has(provider string) bool {
	return s.backend.HasItem(apiKeyPrefix + provider)
}

// Remove deletes the API key for a provider. Removing an absent key
// is not an error.
func (s *KeyStore) Remove(provider string) error {
	return s.backend.RemoveItem(apiKeyPrefix + provider)
}

// List returns the provider names with stored keys, sorted.
func (s *KeyStore) List() ([]string, error) {
	keys, err := s.backend.Keys()
	if err != nil {
		return nil, err
	}

	providers := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := strings.CutPrefix(key, apiKeyPrefix); ok {
			providers = append(providers, name)
		}
	}
	sort.Strings(providers)
	return providers, nil
}

// Clear removes every stored API key and leaves records outside the
// namespace intact.
func (s *KeyStore) Clear() error {
	keys, err := s.backend.Keys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if !strings.HasPrefix(key, apiKeyPrefix) {
			continue
		}
		if err := s.backend.RemoveItem(key); err != nil {
			return err
		}
	}
	return nil
}
