package storage

import (
	"encoding/base64"
	"strings"

	havenerr "github.com/havenhq/haven/pkg/errors"
)

// encodedPrefix marks values written by the encoding transform.
// Values without the prefix were stored raw by the fallback path.
const encodedPrefix = "enc1:"

// encodedPad is the rolling XOR pad. This is an encoding, not
// encryption: it keeps casual eyes off the file, nothing more. The
// tier is named "encoded" rather than "obfuscated" so nobody mistakes
// it for a confidentiality guarantee.
var encodedPad = []byte("haven.encoded.v1") //nolint:gochecknoglobals // transform constant

// EncodedBackend stores reversibly-encoded values in a durable file.
type EncodedBackend struct {
	store *fileStore
}

// Compile-time interface check
var _ Backend = (*EncodedBackend)(nil)

// NewEncodedBackend creates an encoded backend over the file at path.
func NewEncodedBackend(path string) *EncodedBackend {
	return &EncodedBackend{store: newFileStore(path)}
}

// Name returns the tier name.
func (e *EncodedBackend) Name() string { return TierEncoded }

// encode applies the rolling XOR transform and base64-encodes.
func encode(value string) string {
	raw := []byte(value)
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b ^ encodedPad[i%len(encodedPad)]
	}
	return encodedPrefix + base64.StdEncoding.EncodeToString(out)
}

// decode reverses encode. Returns false when the value is not a valid
// encoded record.
func decode(stored string) (string, bool) {
	payload := strings.TrimPrefix(stored, encodedPrefix)
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b ^ encodedPad[i%len(encodedPad)]
	}
	return string(out), true
}

// SetItem stores an encoded value under key.
func (e *EncodedBackend) SetItem(key, value string) error {
	if err := validateItem(key, value); err != nil {
		return err
	}

	encoded := encode(value)
	if encoded == "" {
		// Transform failure falls back to storing raw rather than
		// losing the write.
		encoded = value
	}
	return e.store.set(key, encoded)
}

// GetItem retrieves and decodes the value for key. A record that no
// longer decodes is removed and reported as not found.
func (e *EncodedBackend) GetItem(key string) (string, error) {
	stored, ok, err := e.store.get(key)
	if err != nil {
		return "", havenerr.ErrKeyNotFound
	}
	if !ok {
		return "", havenerr.ErrKeyNotFound
	}

	if !strings.HasPrefix(stored, encodedPrefix) {
		// Raw fallback write.
		return stored, nil
	}

	value, ok := decode(stored)
	if !ok {
		_ = e.store.remove(key)
		return "", havenerr.ErrKeyNotFound
	}
	return value, nil
}

// RemoveItem deletes a key.
func (e *EncodedBackend) RemoveItem(key string) error {
	return e.store.remove(key)
}

// HasItem reports whether key holds a readable value.
func (e *EncodedBackend) HasItem(key string) bool {
	_, err := e.GetItem(key)
	return err == nil
}

// Clear removes all keys.
func (e *EncodedBackend) Clear() error {
	return e.store.clear()
}

// Keys returns all stored keys.
func (e *EncodedBackend) Keys() ([]string, error) {
	return e.store.keys()
}
