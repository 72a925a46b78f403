package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/havenhq/haven/internal/havencrypto"
	"github.com/havenhq/haven/internal/storage"
)

const (
	// BackupExtension is the file extension for backups.
	BackupExtension = ".haven"

	// BackupDirPermissions is the permission mode for the backup directory.
	BackupDirPermissions = 0o750

	// BackupFilePermissions is the permission mode for backup files.
	BackupFilePermissions = 0o600
)

// Service exports and restores the API key store.
type Service struct {
	backupDir string
	keys      *storage.KeyStore
}

// NewService creates a backup service over the given key store.
func NewService(backupDir string, keys *storage.KeyStore) *Service {
	return &Service{
		backupDir: backupDir,
		keys:      keys,
	}
}

// Create exports every stored API key into an age-encrypted backup
// file. The password should be zeroed by the caller after this call
// returns.
func (s *Service) Create(password []byte) (*Backup, string, error) {
	providers, err := s.keys.List()
	if err != nil {
		return nil, "", fmt.Errorf("listing keys: %w", err)
	}

	entries := make(map[string]string, len(providers))
	for _, name := range providers {
		value, getErr := s.keys.Get(name)
		if getErr != nil {
			// A key that vanished between List and Get is skipped,
			// not fatal.
			continue
		}
		entries[name] = value
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, "", fmt.Errorf("serializing backup data: %w", err)
	}
	defer havencrypto.ZeroBytes(payload)

	encrypted, err := havencrypto.Encrypt(payload, string(password))
	if err != nil {
		return nil, "", fmt.Errorf("encrypting backup: %w", err)
	}

	backup := NewBackup(NewManifest(len(entries)), encrypted)

	backupPath, err := s.writeBackup(backup)
	if err != nil {
		return nil, "", fmt.Errorf("writing backup: %w", err)
	}

	return backup, backupPath, nil
}

// Verify checks a backup file's integrity without decrypting.
func (s *Service) Verify(backupPath string) (*Manifest, error) {
	backup, err := s.readBackup(backupPath)
	if err != nil {
		return nil, err
	}

	if err := backup.Validate(); err != nil {
		return nil, err
	}

	return &backup.Manifest, nil
}

// Restore decrypts a backup and writes its keys into the key store.
// Existing keys with the same provider name are overwritten. Returns
// the number of keys restored. The password should be zeroed by the
// caller after this call returns.
func (s *Service) Restore(backupPath string, password []byte) (int, error) {
	backup, err := s.readBackup(backupPath)
	if err != nil {
		return 0, err
	}

	if validationErr := backup.Validate(); validationErr != nil {
		return 0, validationErr
	}

	decrypted, err := havencrypto.Decrypt(backup.EncryptedData, string(password))
	if err != nil {
		return 0, ErrDecryptionFailed
	}
	defer havencrypto.ZeroBytes(decrypted)

	var entries map[string]string
	if err := json.Unmarshal(decrypted, &entries); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	restored := 0
	for name, value := range entries {
		if err := s.keys.Set(name, value); err != nil {
			return restored, fmt.Errorf("restoring key %q: %w", name, err)
		}
		restored++
	}
	return restored, nil
}

// List returns all backup files in the backup directory.
func (s *Service) List() ([]string, error) {
	if err := os.MkdirAll(s.backupDir, BackupDirPermissions); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == BackupExtension {
			backups = append(backups, entry.Name())
		}
	}

	return backups, nil
}

// BackupPath returns the path to a backup file.
func (s *Service) BackupPath(filename string) string {
	return filepath.Join(s.backupDir, filename)
}

// writeBackup writes a backup to the backup directory.
func (s *Service) writeBackup(backup *Backup) (string, error) {
	if err := os.MkdirAll(s.backupDir, BackupDirPermissions); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02-150405")
	filename := fmt.Sprintf("keys-%s%s", timestamp, BackupExtension)
	backupPath := filepath.Join(s.backupDir, filename)

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing backup: %w", err)
	}

	if err := os.WriteFile(backupPath, data, BackupFilePermissions); err != nil {
		return "", fmt.Errorf("writing backup file: %w", err)
	}

	return backupPath, nil
}

// readBackup reads a backup from a file.
func (s *Service) readBackup(path string) (*Backup, error) {
	// #nosec G304 -- path is from user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, fmt.Errorf("reading backup file: %w", err)
	}

	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	return &backup, nil
}
