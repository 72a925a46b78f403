package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	havenerr "github.com/havenhq/haven/pkg/errors"
)

func TestManagerPinsKeychainWhenAvailable(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	mgr, err := NewManager(Options{
		KeysPath:   filepath.Join(home, "keys.json"),
		SessionDir: filepath.Join(home, "session"),
		Keyring:    newFakeKeyring(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	assert.Equal(t, TierKeychain, mgr.Tier())
}

func TestManagerFallsBackWhenKeychainFails(t *testing.T) {
	t.Parallel()

	ring := newFakeKeyring()
	ring.setErr = errors.New("keychain locked")

	home := t.TempDir()
	mgr, err := NewManager(Options{
		KeysPath:   filepath.Join(home, "keys.json"),
		SessionDir: filepath.Join(home, "session"),
		Keyring:    ring,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	assert.Equal(t, TierEncrypted, mgr.Tier())
}

func TestManagerFallsBackToEncodedWhenSessionDirUnavailable(t *testing.T) {
	t.Parallel()

	ring := newFakeKeyring()
	ring.setErr = errors.New("keychain locked")

	home := t.TempDir()

	// A regular file where the session directory should go makes the
	// encrypted tier fail construction.
	blocker := filepath.Join(home, "session")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	mgr, err := NewManager(Options{
		KeysPath:   filepath.Join(home, "keys.json"),
		SessionDir: blocker,
		Keyring:    ring,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	assert.Equal(t, TierEncoded, mgr.Tier())
}

func TestManagerFallsBackToMemoryWhenEverythingFails(t *testing.T) {
	t.Parallel()

	ring := newFakeKeyring()
	ring.setErr = errors.New("keychain locked")

	home := t.TempDir()
	blocker := filepath.Join(home, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	// KeysPath nested under a regular file makes durable writes fail.
	mgr, err := NewManager(Options{
		KeysPath:   filepath.Join(blocker, "keys.json"),
		SessionDir: blocker,
		Keyring:    ring,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	assert.Equal(t, TierMemory, mgr.Tier())

	// The memory tier still honors the full contract.
	require.NoError(t, mgr.Backend().SetItem("key", "value"))
	got, err := mgr.Backend().GetItem("key")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestManagerForcedTier(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	mgr, err := NewManager(Options{
		KeysPath:   filepath.Join(home, "keys.json"),
		SessionDir: filepath.Join(home, "session"),
		Keyring:    newFakeKeyring(),
		ForceTier:  TierMemory,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	assert.Equal(t, TierMemory, mgr.Tier())
}

func TestManagerForcedPlainTier(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	mgr, err := NewManager(Options{
		KeysPath:  filepath.Join(home, "keys.json"),
		ForceTier: TierPlain,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	assert.Equal(t, TierPlain, mgr.Tier())
}

func TestManagerForcedUnknownTier(t *testing.T) {
	t.Parallel()

	_, err := NewManager(Options{ForceTier: "nonsense"})
	require.ErrorIs(t, err, havenerr.ErrUnknownStorageTier)
}

func TestManagerForcedTierMustPassSelfTest(t *testing.T) {
	t.Parallel()

	ring := newFakeKeyring()
	ring.setErr = errors.New("keychain locked")

	_, err := NewManager(Options{
		Keyring:   ring,
		ForceTier: TierKeychain,
	})
	require.ErrorIs(t, err, havenerr.ErrNoStorageTier)
}

func TestManagerSelfTestLeavesNoResidue(t *testing.T) {
	t.Parallel()

	ring := newFakeKeyring()
	home := t.TempDir()
	mgr, err := NewManager(Options{
		KeysPath:   filepath.Join(home, "keys.json"),
		SessionDir: filepath.Join(home, "session"),
		Keyring:    ring,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	keys, err := mgr.Backend().Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
