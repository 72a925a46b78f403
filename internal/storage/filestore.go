package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/havenhq/haven/internal/fileutil"
)

const (
	// storeFilePermissions is the permission mode for store files.
	storeFilePermissions = 0o600

	// storeDirPermissions is the permission mode for store directories.
	storeDirPermissions = 0o700
)

// ErrCorruptStore indicates the store file is malformed JSON.
var ErrCorruptStore = errors.New("store file is corrupted")

// fileStore persists a flat string map as JSON on disk. It is the
// durable backing for the encoded, plain, and encrypted tiers.
type fileStore struct {
	path string
	mu   sync.Mutex
}

func newFileStore(path string) *fileStore {
	return &fileStore{path: path}
}

// load reads the map from disk. A missing file yields an empty map. A
// corrupt file is moved aside and an empty map is returned with
// ErrCorruptStore, so one bad write never wedges the store.
func (s *fileStore) load() (map[string]string, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return map[string]string{}, nil
	}

	data, err := os.ReadFile(s.path) // #nosec G304 -- store path is fixed at construction
	if err != nil {
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		corruptPath := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().UTC().UnixNano())
		if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
			return map[string]string{}, fmt.Errorf("%w: %w (also failed to move file: %w)", ErrCorruptStore, err, renameErr)
		}
		return map[string]string{}, fmt.Errorf("%w: %w (moved to %s)", ErrCorruptStore, err, corruptPath)
	}

	if entries == nil {
		entries = map[string]string{}
	}
	return entries, nil
}

// save writes the map to disk atomically.
func (s *fileStore) save(entries map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, storeDirPermissions); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}

	if err := fileutil.WriteAtomic(s.path, data, storeFilePermissions); err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}
	return nil
}

// get returns the raw stored value for key.
func (s *fileStore) get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil && !errors.Is(err, ErrCorruptStore) {
		return "", false, err
	}
	v, ok := entries[key]
	return v, ok, nil
}

// set stores a raw value under key.
func (s *fileStore) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil && !errors.Is(err, ErrCorruptStore) {
		return err
	}
	entries[key] = value
	return s.save(entries)
}

// remove deletes a key. Absent keys are ignored.
func (s *fileStore) remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil && !errors.Is(err, ErrCorruptStore) {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return s.save(entries)
}

// keys returns the stored key enumeration.
func (s *fileStore) keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil && !errors.Is(err, ErrCorruptStore) {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for k := range entries {
		out = append(out, k)
	}
	return out, nil
}

// clear removes the backing file.
func (s *fileStore) clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("removing store file: %w", err)
	}
	return nil
}
