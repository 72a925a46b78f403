package havencrypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenhq/haven/internal/havencrypto"
)

func TestAge_EncryptDecrypt_RoundTrip(t *testing.T) {
	t.Parallel()
	plaintext := []byte(`{"openai":"sk-abc","gemini":"AIza-xyz"}`)
	password := "strong-passphrase-123" // gitleaks:allow

	ciphertext, err := havencrypto.Encrypt(plaintext, password)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)
	assert.NotEmpty(t, ciphertext)

	decrypted, err := havencrypto.Decrypt(ciphertext, password)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestAge_DecryptWrongPassword(t *testing.T) {
	t.Parallel()
	ciphertext, err := havencrypto.Encrypt([]byte("secret data"), "correct-password") // gitleaks:allow
	require.NoError(t, err)

	_, err = havencrypto.Decrypt(ciphertext, "wrong-password")
	assert.Error(t, err)
}

func TestAge_EmptyPassword(t *testing.T) {
	t.Parallel()
	// Empty password is rejected by age
	_, err := havencrypto.Encrypt([]byte("data"), "")
	assert.Error(t, err)
}

func TestAge_InvalidCiphertext(t *testing.T) {
	t.Parallel()
	_, err := havencrypto.Decrypt([]byte("not valid ciphertext"), "password") // gitleaks:allow
	assert.Error(t, err)
}

func TestAge_DecryptToSecureBytes(t *testing.T) {
	t.Parallel()
	plaintext := []byte("secret backup payload")
	password := "password123" // gitleaks:allow

	ciphertext, err := havencrypto.Encrypt(plaintext, password)
	require.NoError(t, err)

	sb, err := havencrypto.DecryptSecure(ciphertext, password)
	require.NoError(t, err)
	defer sb.Destroy()

	assert.Equal(t, plaintext, sb.Bytes())
}
