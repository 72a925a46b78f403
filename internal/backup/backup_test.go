package backup

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenhq/haven/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.KeyStore) {
	t.Helper()
	keys := storage.NewKeyStore(storage.NewMemoryBackend())
	return NewService(t.TempDir(), keys), keys
}

func TestCreateAndRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	service, keys := newTestService(t)
	require.NoError(t, keys.Set("infura", "token-1"))
	require.NoError(t, keys.Set("alchemy", "token-2"))

	b, path, err := service.Create([]byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, 2, b.Manifest.KeyCount)
	assert.FileExists(t, path)

	// Restore into a fresh store.
	restoreService, restoreKeys := newTestService(t)
	restored, err := restoreService.Restore(path, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	got, err := restoreKeys.Get("infura")
	require.NoError(t, err)
	assert.Equal(t, "token-1", got)
}

func TestBackupFileDoesNotLeakSecrets(t *testing.T) {
	t.Parallel()

	service, keys := newTestService(t)
	require.NoError(t, keys.Set("infura", "super-secret-token"))

	_, path, err := service.Create([]byte("correct horse"))
	require.NoError(t, err)

	raw, err := os.ReadFile(path) // #nosec G304 -- test temp file
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-token")
	assert.NotContains(t, string(raw), "infura")
}

func TestRestoreWrongPassword(t *testing.T) {
	t.Parallel()

	service, keys := newTestService(t)
	require.NoError(t, keys.Set("infura", "token-1"))

	_, path, err := service.Create([]byte("correct horse"))
	require.NoError(t, err)

	_, err = service.Restore(path, []byte("wrong password"))
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestVerifyDetectsTampering(t *testing.T) {
	t.Parallel()

	service, keys := newTestService(t)
	require.NoError(t, keys.Set("infura", "token-1"))

	_, path, err := service.Create([]byte("correct horse"))
	require.NoError(t, err)

	manifest, err := service.Verify(path)
	require.NoError(t, err)
	assert.Equal(t, 1, manifest.KeyCount)

	// Flip bytes inside the encrypted payload.
	raw, err := os.ReadFile(path) // #nosec G304 -- test temp file
	require.NoError(t, err)
	tampered := strings.Replace(string(raw), `"encrypted_data": "`, `"encrypted_data": "QUFB`, 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o600))

	_, err = service.Verify(path)
	require.ErrorIs(t, err, ErrBackupCorrupted)
}

func TestVerifyMissingFile(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	_, err := service.Verify(service.BackupPath("nope.haven"))
	require.ErrorIs(t, err, ErrBackupNotFound)
}

func TestListFindsOnlyBackupFiles(t *testing.T) {
	t.Parallel()

	service, keys := newTestService(t)
	require.NoError(t, keys.Set("infura", "token-1"))

	_, _, err := service.Create([]byte("correct horse"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(service.BackupPath("notes.txt"), []byte("x"), 0o600))

	backups, err := service.List()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.True(t, strings.HasSuffix(backups[0], BackupExtension))
}
