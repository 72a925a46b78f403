package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenhq/haven/internal/havencrypto"
	havenerr "github.com/havenhq/haven/pkg/errors"
)

func TestEncryptedBackendValueNotOnDiskInPlaintext(t *testing.T) {
	t.Parallel()

	sessionDir := filepath.Join(t.TempDir(), "session")
	backend, err := NewEncryptedBackend(sessionDir, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	require.NoError(t, backend.SetItem("api_key_infura", "super-secret-token"))

	raw, err := os.ReadFile(filepath.Join(sessionDir, "secrets.json")) // #nosec G304 -- test temp file
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-token")
}

func TestEncryptedBackendExpiredRecordReadsAsNotFound(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }

	backend, err := NewEncryptedBackend(
		filepath.Join(t.TempDir(), "session"),
		time.Hour,
		havencrypto.WithClock(func() time.Time { return clock() }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	require.NoError(t, backend.SetItem("key", "value"))

	got, err := backend.GetItem("key")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	// Advance past the key bucket: the record is unreadable, removed,
	// and reported as absent rather than as a decrypt error.
	clock = func() time.Time { return now.Add(2 * time.Hour) }

	_, err = backend.GetItem("key")
	require.ErrorIs(t, err, havenerr.ErrKeyNotFound)
	assert.False(t, backend.HasItem("key"))

	keys, err := backend.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestEncryptedBackendCorruptRecordRemoved(t *testing.T) {
	t.Parallel()

	backend, err := NewEncryptedBackend(filepath.Join(t.TempDir(), "session"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	require.NoError(t, backend.store.set("bad", "not-base64-sealed!!"))

	_, err = backend.GetItem("bad")
	require.ErrorIs(t, err, havenerr.ErrKeyNotFound)
	assert.False(t, backend.HasItem("bad"))
}

func TestEncryptedBackendCloseRemovesSessionDir(t *testing.T) {
	t.Parallel()

	sessionDir := filepath.Join(t.TempDir(), "session")
	backend, err := NewEncryptedBackend(sessionDir, 0)
	require.NoError(t, err)

	require.NoError(t, backend.SetItem("key", "value"))
	require.NoError(t, backend.Close())

	_, statErr := os.Stat(sessionDir)
	assert.True(t, os.IsNotExist(statErr))
}
