package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/havencrypto"
	"github.com/havenhq/haven/internal/provider"
	"github.com/havenhq/haven/internal/provider/ethrpc"
	"github.com/havenhq/haven/internal/provider/local"
	"github.com/havenhq/haven/internal/state"
	"github.com/havenhq/haven/internal/storage"
)

// rpcSourceName is the registry name for the configured JSON-RPC
// endpoint.
const rpcSourceName = "rpc"

// rpcSourcePriority ranks external endpoints above the local signer.
const rpcSourcePriority = 80

// EnvMnemonic supplies the local signer mnemonic directly, bypassing
// the keystore file. Intended for development and CI.
const EnvMnemonic = "HAVEN_MNEMONIC"

// EnvKeystorePassphrase supplies the keystore passphrase
// non-interactively.
const EnvKeystorePassphrase = "HAVEN_KEYSTORE_PASSPHRASE"

// openStorage selects a storage tier per the configuration and
// returns the pinned manager. The caller owns Close.
func openStorage() (*storage.Manager, error) {
	return storage.NewManager(storage.Options{
		KeysPath:   cfg.KeysPath(),
		SessionDir: cfg.SessionDir(),
		KeyBucket:  time.Duration(cfg.Storage.KeyBucketHours) * time.Hour,
		ForceTier:  cfg.Storage.Tier,
		Logger:     logger,
	})
}

// buildProviderManager assembles the provider registry from the
// configuration and runs the initial detection pass. The caller owns
// Close.
func buildProviderManager(ctx context.Context) (*provider.Manager, error) {
	m := provider.NewManager(provider.ManagerOptions{
		DetectWait:   time.Duration(cfg.Providers.DetectWaitSeconds) * time.Second,
		PollInterval: time.Duration(cfg.Providers.PollIntervalSeconds) * time.Second,
		Logger:       logger,
	})

	if cfg.Providers.RPC.Enabled {
		m.Register(ethrpc.NewSource(
			provider.SourceInfo{Name: rpcSourceName, Priority: rpcSourcePriority, Preferred: true},
			cfg.Providers.RPC.URL,
			ethrpc.SourceOptions{
				FallbackURLs:  cfg.Providers.RPC.FallbackURLs,
				RatePerSecond: cfg.Providers.RPC.RatePerSecond,
				Burst:         cfg.Providers.RPC.Burst,
			},
		))
	}

	if cfg.Providers.Local.Enabled {
		signer, err := loadLocalSigner()
		if err != nil {
			logger.Error("local signer unavailable: %v", err)
			signer = nil
		}
		m.Register(local.NewSource(signer, local.DefaultPriority))
	}

	if err := m.Initialize(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

// buildStore wires a wallet state store over the provider manager.
// Connection hints are not secrets and must outlive the process, so
// they go through a dedicated encoded file under home rather than the
// pinned secret tier, whose encrypted backend discards its key
// material on Close. Both returned values share a lifetime; close the
// manager last.
func buildStore(ctx context.Context) (*state.Store, *provider.Manager, error) {
	providerMgr, err := buildProviderManager(ctx)
	if err != nil {
		return nil, nil, err
	}

	store := state.NewStore(providerMgr, storage.NewEncodedBackend(cfg.StatePath()), state.StoreOptions{
		AutoConnect: cfg.Providers.AutoConnect,
		Logger:      logger,
	})
	return store, providerMgr, nil
}

// legacySealer rebuilds the sealer for the pre-tiered encrypted file
// from the old session key, when one is still on disk. Without it the
// migration sweep drops sealed entries as undecryptable.
func legacySealer(home string) *havencrypto.Sealer {
	secret, err := os.ReadFile(filepath.Join(home, "session.key")) //nolint:gosec // path derived from home dir
	if err != nil || len(secret) == 0 {
		return nil
	}
	bucket := time.Duration(cfg.Storage.KeyBucketHours) * time.Hour
	return havencrypto.NewSealer(secret, bucket)
}

// loadLocalSigner builds the in-process signer from the mnemonic in
// the environment, or from the age-encrypted keystore file. Returns
// nil with no error when neither source exists; the local source then
// reports itself unavailable.
func loadLocalSigner() (*local.Signer, error) {
	chainID := fmt.Sprintf("0x%x", cfg.Providers.Local.ChainID)
	accounts := cfg.Providers.Local.Accounts
	if accounts <= 0 {
		accounts = 1
	}

	if mnemonic := os.Getenv(EnvMnemonic); mnemonic != "" {
		return local.NewSigner(mnemonic, "", chainID, accounts)
	}

	keystorePath := config.ExpandHome(cfg.Providers.Local.KeystoreFile)
	ciphertext, err := os.ReadFile(keystorePath) //nolint:gosec // path comes from the user's own config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	passphrase := os.Getenv(EnvKeystorePassphrase)
	if passphrase == "" {
		raw, promptErr := promptPasswordFn("Keystore passphrase: ")
		if promptErr != nil {
			return nil, promptErr
		}
		passphrase = string(raw)
		havencrypto.ZeroBytes(raw)
	}

	mnemonic, err := havencrypto.DecryptSecure(ciphertext, passphrase)
	if err != nil {
		return nil, err
	}
	defer mnemonic.Destroy()

	return local.NewSigner(string(mnemonic.Bytes()), "", chainID, accounts)
}
