package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	havenerr "github.com/havenhq/haven/pkg/errors"
)

func TestEncodedBackendObscuresValueOnDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys.json")
	backend := NewEncodedBackend(path)

	require.NoError(t, backend.SetItem("api_key_infura", "super-secret-token"))

	raw, err := os.ReadFile(path) // #nosec G304 -- test temp file
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-token")

	got, err := backend.GetItem("api_key_infura")
	require.NoError(t, err)
	assert.Equal(t, "super-secret-token", got)
}

func TestEncodedBackendCorruptRecordRemoved(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys.json")
	backend := NewEncodedBackend(path)

	// A record carrying the prefix but invalid base64 is undecodable.
	require.NoError(t, backend.store.set("bad", encodedPrefix+"!!not-base64!!"))

	_, err := backend.GetItem("bad")
	require.ErrorIs(t, err, havenerr.ErrKeyNotFound)
	assert.False(t, backend.HasItem("bad"))

	// The removal is durable, not just a read-time mask.
	keys, err := backend.Keys()
	require.NoError(t, err)
	assert.NotContains(t, keys, "bad")
}

func TestEncodedBackendReadsRawFallbackValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys.json")
	backend := NewEncodedBackend(path)

	// Values without the transform prefix were written by the raw
	// fallback path and read back verbatim.
	require.NoError(t, backend.store.set("legacy", "plain-value"))

	got, err := backend.GetItem("legacy")
	require.NoError(t, err)
	assert.Equal(t, "plain-value", got)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []string{
		"a",
		"token-with-dashes",
		strings.Repeat("x", 4096),
		"unicode éè世界",
	}
	for _, value := range cases {
		encoded := encode(value)
		assert.True(t, strings.HasPrefix(encoded, encodedPrefix))

		decoded, ok := decode(encoded)
		require.True(t, ok)
		assert.Equal(t, value, decoded)
	}
}
