package storage

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/havencrypto"
)

// legacyPlainFile and legacyEncryptedFile are the pre-tiered storage
// locations swept by Migrate.
const (
	legacyPlainFile     = "apikeys.json"
	legacyEncryptedFile = "secrets.enc.json"
)

// MigrateResult reports the outcome of a legacy sweep.
type MigrateResult struct {
	Moved   int
	Dropped int
}

// Migrate performs a one-time best-effort sweep of legacy storage
// locations under home, moving recognizable entries into the active
// backend. Entries that cannot be decoded under the old scheme are
// dropped rather than blocking the sweep; the legacy files are
// removed once processed.
func Migrate(home string, backend Backend, sealer *havencrypto.Sealer, logger *config.Logger) (MigrateResult, error) {
	if logger == nil {
		logger = config.NullLogger()
	}

	var result MigrateResult

	plainPath := filepath.Join(home, legacyPlainFile)
	if entries, ok := readLegacyMap(plainPath); ok {
		for key, value := range entries {
			moveLegacyEntry(backend, key, value, &result, logger)
		}
		removeLegacyFile(plainPath, logger)
	}

	encPath := filepath.Join(home, legacyEncryptedFile)
	if entries, ok := readLegacyMap(encPath); ok {
		for key, sealed := range entries {
			value, err := openLegacySealed(sealer, sealed)
			if err != nil {
				logger.Debug("migrate: dropping undecryptable entry %q: %v", key, err)
				result.Dropped++
				continue
			}
			moveLegacyEntry(backend, key, value, &result, logger)
		}
		removeLegacyFile(encPath, logger)
	}

	return result, nil
}

// readLegacyMap loads a legacy JSON map. A missing or unparseable
// file yields ok=false; the sweep skips it.
func readLegacyMap(path string) (map[string]string, bool) {
	data, err := os.ReadFile(path) //nolint:gosec // path derived from home dir
	if err != nil {
		return nil, false
	}
	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// openLegacySealed decodes one entry from the prior encrypted layout.
func openLegacySealed(sealer *havencrypto.Sealer, sealed string) (string, error) {
	if sealer == nil {
		return "", havencrypto.ErrSealCorrupt
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	plain, err := sealer.Open(raw)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// moveLegacyEntry writes one legacy record into the active backend,
// normalizing ad hoc legacy naming into the API-key namespace.
func moveLegacyEntry(backend Backend, key, value string, result *MigrateResult, logger *config.Logger) {
	if strings.TrimSpace(value) == "" {
		result.Dropped++
		return
	}
	if !strings.HasPrefix(key, apiKeyPrefix) {
		key = apiKeyPrefix + strings.TrimPrefix(key, "apikey.")
	}
	if err := backend.SetItem(key, value); err != nil {
		logger.Debug("migrate: failed to move entry %q: %v", key, err)
		result.Dropped++
		return
	}
	result.Moved++
}

// removeLegacyFile deletes a processed legacy file.
func removeLegacyFile(path string, logger *config.Logger) {
	if err := os.Remove(path); err != nil {
		logger.Debug("migrate: could not remove legacy file %s: %v", path, err)
	}
}
