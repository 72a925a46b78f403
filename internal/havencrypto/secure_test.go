package havencrypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenhq/haven/internal/havencrypto"
)

func TestSecureBytes_FromSlice(t *testing.T) {
	t.Parallel()

	data := []byte("sensitive key material")
	sb, err := havencrypto.SecureBytesFromSlice(data)
	require.NoError(t, err)
	defer sb.Destroy()

	assert.Equal(t, data, sb.Bytes())
	assert.Equal(t, len(data), sb.Len())
}

func TestSecureBytes_Destroy(t *testing.T) {
	t.Parallel()

	sb, err := havencrypto.SecureBytesFromSlice([]byte("secret"))
	require.NoError(t, err)

	sb.Destroy()
	assert.Nil(t, sb.Bytes())
	assert.Equal(t, 0, sb.Len())

	// Destroy is idempotent
	sb.Destroy()
	assert.Nil(t, sb.Bytes())
}

func TestSecureBytes_Empty(t *testing.T) {
	t.Parallel()

	sb, err := havencrypto.NewSecureBytes(0)
	require.NoError(t, err)
	defer sb.Destroy()

	assert.Equal(t, 0, sb.Len())
	assert.False(t, sb.IsLocked(), "zero-length buffers cannot be locked")
}

func TestZeroBytes(t *testing.T) {
	t.Parallel()

	b := []byte{1, 2, 3, 4}
	havencrypto.ZeroBytes(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
}
