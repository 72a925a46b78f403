package havencrypto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenhq/haven/internal/havencrypto"
)

func TestSealer_RoundTrip(t *testing.T) {
	t.Parallel()

	sealer := havencrypto.NewSealer([]byte("process-secret"), time.Hour)
	plaintext := []byte("sk-live-abc123")

	sealed, err := sealer.Seal(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "sk-live-abc123")

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSealer_FreshNoncePerSeal(t *testing.T) {
	t.Parallel()

	sealer := havencrypto.NewSealer([]byte("process-secret"), time.Hour)

	first, err := sealer.Seal([]byte("value"))
	require.NoError(t, err)
	second, err := sealer.Seal([]byte("value"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSealer_TamperedRecord(t *testing.T) {
	t.Parallel()

	sealer := havencrypto.NewSealer([]byte("process-secret"), time.Hour)

	sealed, err := sealer.Seal([]byte("value"))
	require.NoError(t, err)

	// Flip a byte inside the envelope's ciphertext region.
	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-10] ^= 0xff

	_, err = sealer.Open(tampered)
	require.ErrorIs(t, err, havencrypto.ErrSealCorrupt)
}

func TestSealer_NotJSON(t *testing.T) {
	t.Parallel()

	sealer := havencrypto.NewSealer([]byte("process-secret"), time.Hour)
	_, err := sealer.Open([]byte("definitely not an envelope"))
	require.ErrorIs(t, err, havencrypto.ErrSealCorrupt)
}

func TestSealer_BucketExpiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	sealer := havencrypto.NewSealer([]byte("process-secret"), time.Hour, havencrypto.WithClock(clock))

	sealed, err := sealer.Seal([]byte("value"))
	require.NoError(t, err)

	// Same bucket still opens.
	now = now.Add(time.Minute)
	_, err = sealer.Open(sealed)
	require.NoError(t, err)

	// Crossing the bucket boundary expires the record.
	now = now.Add(2 * time.Hour)
	_, err = sealer.Open(sealed)
	require.ErrorIs(t, err, havencrypto.ErrSealExpired)
}

func TestSealer_DifferentSecrets(t *testing.T) {
	t.Parallel()

	a := havencrypto.NewSealer([]byte("secret-a"), time.Hour)
	b := havencrypto.NewSealer([]byte("secret-b"), time.Hour)

	sealed, err := a.Seal([]byte("value"))
	require.NoError(t, err)

	_, err = b.Open(sealed)
	require.ErrorIs(t, err, havencrypto.ErrSealCorrupt)
}

func TestNewRandomSealer(t *testing.T) {
	t.Parallel()

	sealer, err := havencrypto.NewRandomSealer(0)
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("value"))
	require.NoError(t, err)

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), opened)
}
