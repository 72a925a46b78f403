package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	havenerr "github.com/havenhq/haven/pkg/errors"
)

// newTestBackends constructs one backend per tier over temp storage.
func newTestBackends(t *testing.T) map[string]Backend {
	t.Helper()

	encrypted, err := NewEncryptedBackend(filepath.Join(t.TempDir(), "session"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = encrypted.Close() })

	return map[string]Backend{
		TierMemory:    NewMemoryBackend(),
		TierEncoded:   NewEncodedBackend(filepath.Join(t.TempDir(), "keys.json")),
		TierEncrypted: encrypted,
		TierPlain:     NewPlainBackend(filepath.Join(t.TempDir(), "keys.json")),
		TierKeychain:  NewKeychainBackend(newFakeKeyring(), "haven-test"),
	}
}

func TestBackendRoundTrip(t *testing.T) {
	t.Parallel()

	for name, backend := range newTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.SetItem("alpha", "value-1"))
			require.NoError(t, backend.SetItem("beta", "value-2"))

			got, err := backend.GetItem("alpha")
			require.NoError(t, err)
			assert.Equal(t, "value-1", got)

			assert.True(t, backend.HasItem("beta"))

			keys, err := backend.Keys()
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"alpha", "beta"}, keys)

			require.NoError(t, backend.RemoveItem("alpha"))
			_, err = backend.GetItem("alpha")
			require.ErrorIs(t, err, havenerr.ErrKeyNotFound)
			assert.False(t, backend.HasItem("alpha"))
		})
	}
}

func TestBackendRejectsEmptyValues(t *testing.T) {
	t.Parallel()

	for name, backend := range newTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, backend.SetItem("key", ""), havenerr.ErrEmptyValue)
			require.ErrorIs(t, backend.SetItem("key", "   "), havenerr.ErrEmptyValue)
			require.ErrorIs(t, backend.SetItem("", "value"), havenerr.ErrInvalidInput)

			// Nothing was written.
			assert.False(t, backend.HasItem("key"))
		})
	}
}

func TestBackendRemoveAbsentKey(t *testing.T) {
	t.Parallel()

	for name, backend := range newTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.RemoveItem("never-stored"))
		})
	}
}

func TestBackendClear(t *testing.T) {
	t.Parallel()

	for name, backend := range newTestBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.SetItem("one", "1"))
			require.NoError(t, backend.SetItem("two", "2"))
			require.NoError(t, backend.Clear())

			keys, err := backend.Keys()
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestFileStoreCorruptFileMovedAside(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := newFileStore(path)
	entries, err := store.load()
	require.ErrorIs(t, err, ErrCorruptStore)
	assert.Empty(t, entries)

	// The bad file was renamed, so the next write starts clean.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	matches, globErr := filepath.Glob(path + ".corrupt.*")
	require.NoError(t, globErr)
	assert.Len(t, matches, 1)

	require.NoError(t, store.set("fresh", "value"))
	v, ok, err := store.get("fresh")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", v)
}
