package storage

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/havenhq/haven/internal/havencrypto"
	havenerr "github.com/havenhq/haven/pkg/errors"
)

// EncryptedBackend seals values with AES-GCM under a time-bucketed
// derived key and persists them in a session-scoped store. The
// session store is removed on Close, and records sealed under an
// expired key bucket read back as not found.
type EncryptedBackend struct {
	store      *fileStore
	sealer     *havencrypto.Sealer
	sessionDir string
}

// Compile-time interface check
var _ Backend = (*EncryptedBackend)(nil)

// NewEncryptedBackend creates an encrypted backend whose records live
// under sessionDir. bucket bounds the lifetime of the derived key.
func NewEncryptedBackend(sessionDir string, bucket time.Duration, opts ...havencrypto.SealerOption) (*EncryptedBackend, error) {
	sealer, err := havencrypto.NewRandomSealer(bucket, opts...)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(sessionDir, storeDirPermissions); err != nil {
		return nil, err
	}

	return &EncryptedBackend{
		store:      newFileStore(filepath.Join(sessionDir, "secrets.json")),
		sealer:     sealer,
		sessionDir: sessionDir,
	}, nil
}

// Name returns the tier name.
func (e *EncryptedBackend) Name() string { return TierEncrypted }

// SetItem seals and stores a value under key.
func (e *EncryptedBackend) SetItem(key, value string) error {
	if err := validateItem(key, value); err != nil {
		return err
	}

	sealed, err := e.sealer.Seal([]byte(value))
	if err != nil {
		return err
	}
	return e.store.set(key, base64.StdEncoding.EncodeToString(sealed))
}

// GetItem retrieves and opens the value for key. Expired or corrupt
// records are removed and reported as not found; decode errors never
// propagate.
func (e *EncryptedBackend) GetItem(key string) (string, error) {
	stored, ok, err := e.store.get(key)
	if err != nil || !ok {
		return "", havenerr.ErrKeyNotFound
	}

	sealed, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		_ = e.store.remove(key)
		return "", havenerr.ErrKeyNotFound
	}

	plaintext, err := e.sealer.Open(sealed)
	if err != nil {
		if errors.Is(err, havencrypto.ErrSealExpired) || errors.Is(err, havencrypto.ErrSealCorrupt) {
			_ = e.store.remove(key)
		}
		return "", havenerr.ErrKeyNotFound
	}

	value := string(plaintext)
	havencrypto.ZeroBytes(plaintext)
	return value, nil
}

// RemoveItem deletes a key.
func (e *EncryptedBackend) RemoveItem(key string) error {
	return e.store.remove(key)
}

// HasItem reports whether key holds a readable value.
func (e *EncryptedBackend) HasItem(key string) bool {
	_, err := e.GetItem(key)
	return err == nil
}

// Clear removes all keys.
func (e *EncryptedBackend) Clear() error {
	return e.store.clear()
}

// Keys returns all stored keys.
func (e *EncryptedBackend) Keys() ([]string, error) {
	return e.store.keys()
}

// Close removes the session-scoped store from disk.
func (e *EncryptedBackend) Close() error {
	return os.RemoveAll(e.sessionDir)
}
