package storage

import (
	"sync"

	havenerr "github.com/havenhq/haven/pkg/errors"
)

// MemoryBackend is a process-lifetime map. It is the last-resort tier:
// it cannot fail, so the tier manager can always fall back to it.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]string
}

// Compile-time interface check
var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]string)}
}

// Name returns the tier name.
func (m *MemoryBackend) Name() string { return TierMemory }

// SetItem stores a value under key.
func (m *MemoryBackend) SetItem(key, value string) error {
	if err := validateItem(key, value); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

// GetItem retrieves the value for key.
func (m *MemoryBackend) GetItem(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	if !ok {
		return "", havenerr.ErrKeyNotFound
	}
	return v, nil
}

// RemoveItem deletes a key.
func (m *MemoryBackend) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// HasItem reports whether key is present.
func (m *MemoryBackend) HasItem(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok
}

// Clear removes all keys.
func (m *MemoryBackend) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]string)
	return nil
}

// Keys returns all stored keys.
func (m *MemoryBackend) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, k)
	}
	return out, nil
}
