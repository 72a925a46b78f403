// Package backup provides encrypted export and restore of the API
// key store.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBackupNotFound indicates the backup file was not found.
	ErrBackupNotFound = errors.New("backup file not found")

	// ErrBackupCorrupted indicates the backup checksum failed.
	ErrBackupCorrupted = errors.New("backup corrupted - checksum mismatch")

	// ErrDecryptionFailed indicates backup decryption failed.
	ErrDecryptionFailed = errors.New("backup decryption failed")

	// ErrInvalidFormat indicates the backup format is invalid.
	ErrInvalidFormat = errors.New("invalid backup format")
)

// BackupVersion is the current backup format version.
const BackupVersion = 1

// Backup is one exported key-store snapshot.
type Backup struct {
	// Version is the backup format version.
	Version int `json:"version"`

	// Manifest contains backup metadata.
	Manifest Manifest `json:"manifest"`

	// EncryptedData is the age-encrypted key payload.
	EncryptedData []byte `json:"encrypted_data"`

	// Checksum is the SHA256 hash of EncryptedData.
	Checksum string `json:"checksum"`
}

// Manifest contains metadata about the backup. The key count is
// visible without decryption; the provider names and values are not.
type Manifest struct {
	// CreatedAt is when the backup was created.
	CreatedAt time.Time `json:"created_at"`

	// KeyCount is the number of API keys in the backup.
	KeyCount int `json:"key_count"`

	// EncryptionMethod describes the encryption used.
	EncryptionMethod string `json:"encryption_method"`
}

// NewManifest creates a manifest for a backup of keyCount keys.
func NewManifest(keyCount int) Manifest {
	return Manifest{
		CreatedAt:        time.Now().UTC(),
		KeyCount:         keyCount,
		EncryptionMethod: "age",
	}
}

// CalculateChecksum computes the SHA256 checksum of data.
func CalculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// VerifyChecksum verifies that data matches the expected checksum.
func VerifyChecksum(data []byte, expected string) error {
	actual := CalculateChecksum(data)
	if actual != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrBackupCorrupted, expected, actual)
	}
	return nil
}

// NewBackup creates a backup with the given manifest and encrypted
// payload.
func NewBackup(manifest Manifest, encryptedData []byte) *Backup {
	return &Backup{
		Version:       BackupVersion,
		Manifest:      manifest,
		EncryptedData: encryptedData,
		Checksum:      CalculateChecksum(encryptedData),
	}
}

// Validate checks the backup for consistency.
func (b *Backup) Validate() error {
	if b.Version != BackupVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, b.Version)
	}

	if len(b.EncryptedData) == 0 {
		return fmt.Errorf("%w: no encrypted data", ErrInvalidFormat)
	}

	return VerifyChecksum(b.EncryptedData, b.Checksum)
}
