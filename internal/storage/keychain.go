package storage

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/zalando/go-keyring"

	havenerr "github.com/havenhq/haven/pkg/errors"
)

// DefaultKeychainService is the OS keychain service name for Haven secrets.
const DefaultKeychainService = "haven"

// indexEntry is the reserved keychain entry holding the key index.
// OS keychains offer no enumeration, so the backend maintains its own.
const indexEntry = "__haven_index__"

// Keyring is the subset of OS keychain operations the backend needs.
// It exists so tests can substitute a fake.
type Keyring interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

// OSKeyring implements Keyring using the operating system keychain.
type OSKeyring struct{}

// Set stores a secret in the OS keyring.
func (OSKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

// Get retrieves a secret from the OS keyring.
func (OSKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// Delete removes a secret from the OS keyring.
func (OSKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// isKeyringNotFound reports whether err means the entry is absent.
func isKeyringNotFound(err error) bool {
	return errors.Is(err, keyring.ErrNotFound)
}

// KeychainBackend stores secrets in the OS keychain.
type KeychainBackend struct {
	ring    Keyring
	service string
	mu      sync.Mutex
}

// Compile-time interface check
var _ Backend = (*KeychainBackend)(nil)

// NewKeychainBackend creates a keychain backend. A nil ring uses the
// OS keychain.
func NewKeychainBackend(ring Keyring, service string) *KeychainBackend {
	if ring == nil {
		ring = OSKeyring{}
	}
	if service == "" {
		service = DefaultKeychainService
	}
	return &KeychainBackend{ring: ring, service: service}
}

// Name returns the tier name.
func (k *KeychainBackend) Name() string { return TierKeychain }

// loadIndex reads the key index. A missing or unreadable index is
// treated as empty.
func (k *KeychainBackend) loadIndex() []string {
	raw, err := k.ring.Get(k.service, indexEntry)
	if err != nil {
		return nil
	}
	var index []string
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		return nil
	}
	return index
}

// saveIndex writes the key index.
func (k *KeychainBackend) saveIndex(index []string) error {
	data, err := json.Marshal(index)
	if err != nil {
		return err
	}
	return k.ring.Set(k.service, indexEntry, string(data))
}

// SetItem stores a value under key.
func (k *KeychainBackend) SetItem(key, value string) error {
	if err := validateItem(key, value); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.ring.Set(k.service, key, value); err != nil {
		return err
	}

	index := k.loadIndex()
	for _, existing := range index {
		if existing == key {
			return nil
		}
	}
	return k.saveIndex(append(index, key))
}

// GetItem retrieves the value for key.
func (k *KeychainBackend) GetItem(key string) (string, error) {
	v, err := k.ring.Get(k.service, key)
	if err != nil {
		// Absent and unreadable degrade identically to not-found.
		return "", havenerr.ErrKeyNotFound
	}
	return v, nil
}

// RemoveItem deletes a key.
func (k *KeychainBackend) RemoveItem(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.ring.Delete(k.service, key); err != nil && !isKeyringNotFound(err) {
		return err
	}

	index := k.loadIndex()
	filtered := index[:0]
	for _, entry := range index {
		if entry != key {
			filtered = append(filtered, entry)
		}
	}
	return k.saveIndex(filtered)
}

// HasItem reports whether key is present.
func (k *KeychainBackend) HasItem(key string) bool {
	_, err := k.GetItem(key)
	return err == nil
}

// Clear removes every indexed key and the index itself.
func (k *KeychainBackend) Clear() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, key := range k.loadIndex() {
		_ = k.ring.Delete(k.service, key)
	}
	if err := k.ring.Delete(k.service, indexEntry); err != nil && !isKeyringNotFound(err) {
		return err
	}
	return nil
}

// Keys returns the indexed key enumeration.
func (k *KeychainBackend) Keys() ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.loadIndex(), nil
}
