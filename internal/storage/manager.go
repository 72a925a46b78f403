package storage

import (
	"fmt"
	"time"

	"github.com/havenhq/haven/internal/config"
	havenerr "github.com/havenhq/haven/pkg/errors"
)

// selfTestKey and selfTestValue are the round-trip probe used to
// validate a tier before pinning it.
const (
	selfTestKey   = "__haven_probe__"
	selfTestValue = "probe"
)

// Options configures the tier manager.
type Options struct {
	// KeysPath is the durable store file for the encoded and plain tiers.
	KeysPath string

	// SessionDir holds the encrypted tier's session-scoped store.
	SessionDir string

	// KeyBucket bounds the encrypted tier's derived-key lifetime.
	// Zero uses the default.
	KeyBucket time.Duration

	// ForceTier pins a tier by name, bypassing the probe order.
	ForceTier string

	// Keyring substitutes the OS keychain. Nil uses the real one.
	Keyring Keyring

	// KeychainService overrides the keychain service name.
	KeychainService string

	// Logger receives tier selection diagnostics. Nil discards them.
	Logger *config.Logger
}

// Manager probes storage tiers in priority order and pins the first
// that passes its self-test for the remainder of the process lifetime.
type Manager struct {
	backend Backend
	logger  *config.Logger
}

// NewManager selects and pins a storage tier.
//
// With ForceTier set, the named tier is constructed and must pass its
// self-test; a failing forced tier is an error rather than a silent
// downgrade. Otherwise tiers are probed in order keychain, encrypted,
// encoded, memory, and the memory tier is used unconditionally if
// every probe fails. The plain tier is only reachable through
// ForceTier and logs a warning when selected.
func NewManager(opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = config.NullLogger()
	}

	m := &Manager{logger: logger}

	if opts.ForceTier != "" {
		backend, err := m.construct(opts.ForceTier, opts)
		if err != nil {
			return nil, err
		}
		if err := selfTest(backend); err != nil {
			return nil, havenerr.WithDetails(havenerr.ErrNoStorageTier, map[string]string{
				"tier":  opts.ForceTier,
				"cause": err.Error(),
			})
		}
		if opts.ForceTier == TierPlain {
			logger.Error("storage: plain tier forced - secrets will be stored in PLAINTEXT on disk")
		}
		logger.Debug("storage: pinned forced tier %q", opts.ForceTier)
		m.backend = backend
		return m, nil
	}

	for _, tier := range []string{TierKeychain, TierEncrypted, TierEncoded, TierMemory} {
		backend, err := m.construct(tier, opts)
		if err != nil {
			logger.Debug("storage: tier %q unavailable: %v", tier, err)
			continue
		}
		if err := selfTest(backend); err != nil {
			logger.Debug("storage: tier %q failed self-test: %v", tier, err)
			closeBackend(backend)
			continue
		}
		logger.Debug("storage: pinned tier %q", tier)
		m.backend = backend
		return m, nil
	}

	// The memory tier cannot fail its self-test, but guarantee
	// availability regardless.
	logger.Error("storage: all tier probes failed, using memory tier")
	m.backend = NewMemoryBackend()
	return m, nil
}

// construct builds a tier by name.
func (m *Manager) construct(tier string, opts Options) (Backend, error) {
	switch tier {
	case TierKeychain:
		return NewKeychainBackend(opts.Keyring, opts.KeychainService), nil
	case TierEncrypted:
		return NewEncryptedBackend(opts.SessionDir, opts.KeyBucket)
	case TierEncoded:
		return NewEncodedBackend(opts.KeysPath), nil
	case TierPlain:
		return NewPlainBackend(opts.KeysPath), nil
	case TierMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, havenerr.WithDetails(havenerr.ErrUnknownStorageTier, map[string]string{
			"tier": tier,
		})
	}
}

// selfTest runs the write/read-equal/delete round trip.
func selfTest(b Backend) error {
	if err := b.SetItem(selfTestKey, selfTestValue); err != nil {
		return fmt.Errorf("probe write: %w", err)
	}

	got, err := b.GetItem(selfTestKey)
	if err != nil {
		_ = b.RemoveItem(selfTestKey)
		return fmt.Errorf("probe read: %w", err)
	}
	if got != selfTestValue {
		_ = b.RemoveItem(selfTestKey)
		return fmt.Errorf("probe mismatch: got %q", got)
	}

	if err := b.RemoveItem(selfTestKey); err != nil {
		return fmt.Errorf("probe delete: %w", err)
	}
	return nil
}

// closeBackend releases tier resources when a probe is abandoned.
func closeBackend(b Backend) {
	if closer, ok := b.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

// Backend returns the pinned tier.
func (m *Manager) Backend() Backend {
	return m.backend
}

// Tier returns the pinned tier's name.
func (m *Manager) Tier() string {
	return m.backend.Name()
}

// Close releases the pinned tier's resources.
func (m *Manager) Close() error {
	if closer, ok := m.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
