package storage

import (
	havenerr "github.com/havenhq/haven/pkg/errors"
)

// PlainBackend stores values in plaintext on disk, falling back to an
// in-memory map when the durable store errors. It exists for local
// development only and is never auto-selected: the tier manager
// requires it to be forced by name and logs a warning when it is.
type PlainBackend struct {
	store    *fileStore
	fallback *MemoryBackend
}

// Compile-time interface check
var _ Backend = (*PlainBackend)(nil)

// NewPlainBackend creates a plaintext backend over the file at path.
func NewPlainBackend(path string) *PlainBackend {
	return &PlainBackend{
		store:    newFileStore(path),
		fallback: NewMemoryBackend(),
	}
}

// Name returns the tier name.
func (p *PlainBackend) Name() string { return TierPlain }

// SetItem stores a value under key, falling back to memory when the
// durable store fails.
func (p *PlainBackend) SetItem(key, value string) error {
	if err := validateItem(key, value); err != nil {
		return err
	}

	if err := p.store.set(key, value); err != nil {
		return p.fallback.SetItem(key, value)
	}
	return nil
}

// GetItem retrieves the value for key, checking the durable store
// first, then the memory fallback.
func (p *PlainBackend) GetItem(key string) (string, error) {
	stored, ok, err := p.store.get(key)
	if err == nil && ok {
		return stored, nil
	}
	if v, ferr := p.fallback.GetItem(key); ferr == nil {
		return v, nil
	}
	return "", havenerr.ErrKeyNotFound
}

// RemoveItem deletes a key from both stores.
func (p *PlainBackend) RemoveItem(key string) error {
	_ = p.fallback.RemoveItem(key)
	return p.store.remove(key)
}

// HasItem reports whether key is present.
func (p *PlainBackend) HasItem(key string) bool {
	_, err := p.GetItem(key)
	return err == nil
}

// Clear removes all keys from both stores.
func (p *PlainBackend) Clear() error {
	_ = p.fallback.Clear()
	return p.store.clear()
}

// Keys returns the union of durable and fallback keys.
func (p *PlainBackend) Keys() ([]string, error) {
	durable, err := p.store.keys()
	if err != nil {
		return p.fallback.Keys()
	}

	seen := make(map[string]bool, len(durable))
	for _, k := range durable {
		seen[k] = true
	}
	memKeys, _ := p.fallback.Keys()
	for _, k := range memKeys {
		if !seen[k] {
			durable = append(durable, k)
		}
	}
	return durable, nil
}
