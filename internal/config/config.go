// Package config provides configuration management for Haven.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version   int             `yaml:"version"`
	Home      string          `yaml:"home"`
	Providers ProvidersConfig `yaml:"providers"`
	Storage   StorageConfig   `yaml:"storage"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ProvidersConfig defines wallet provider detection and connection settings.
type ProvidersConfig struct {
	// DetectWaitSeconds bounds the initial wait for any provider source
	// to become reachable.
	DetectWaitSeconds int `yaml:"detect_wait_seconds"`

	// PollIntervalSeconds is the period of the re-detection loop.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// AutoConnect reconnects to the last successful provider on startup.
	AutoConnect bool `yaml:"auto_connect"`

	RPC   RPCProviderConfig   `yaml:"rpc"`
	Local LocalProviderConfig `yaml:"local"`
}

// RPCProviderConfig defines the JSON-RPC provider source.
type RPCProviderConfig struct {
	Enabled      bool     `yaml:"enabled"`
	URL          string   `yaml:"url"`
	FallbackURLs []string `yaml:"fallback_urls,omitempty"`
	ChainID      int      `yaml:"chain_id"`

	// RatePerSecond and Burst configure the per-endpoint rate limiter.
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// LocalProviderConfig defines the local signing provider source.
type LocalProviderConfig struct {
	Enabled      bool   `yaml:"enabled"`
	KeystoreFile string `yaml:"keystore_file"`
	ChainID      int    `yaml:"chain_id"`
	Accounts     int    `yaml:"accounts"`
}

// StorageConfig defines secret storage settings.
type StorageConfig struct {
	// Tier forces a specific storage tier by name. Empty selects the
	// best available tier by probing.
	Tier string `yaml:"tier"`

	// KeyBucketHours is the rotation bucket for the encrypted tier's
	// derived key. Records sealed under an older bucket expire.
	KeyBucketHours int `yaml:"key_bucket_hours"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default haven home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".haven"
	}
	return filepath.Join(home, ".haven")
}

// ExpandHome expands a leading "~/" in a path.
func ExpandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// KeysPath returns the durable key store file path.
func (c *Config) KeysPath() string {
	return filepath.Join(ExpandHome(c.Home), "keys.json")
}

// SessionDir returns the directory holding session-scoped storage.
func (c *Config) SessionDir() string {
	return filepath.Join(ExpandHome(c.Home), "session")
}

// StatePath returns the persisted connection state file path.
func (c *Config) StatePath() string {
	return filepath.Join(ExpandHome(c.Home), "state.json")
}
