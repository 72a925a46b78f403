package config

// DefaultRPCURL is the default Ethereum RPC endpoint.
// Uses PublicNode (Allnodes), a privacy-first provider that requires no API key.
const DefaultRPCURL = "https://ethereum-rpc.publicnode.com"

// DefaultFallbackRPCs are backup RPC endpoints tried when the primary fails.
// All are reputable, free, no-API-key providers with strong privacy policies.
//
//nolint:gochecknoglobals // Configuration default constant, same pattern as DefaultRPCURL
var DefaultFallbackRPCs = []string{
	"https://rpc.ankr.com/eth",
	"https://1rpc.io/eth",
}

// Detection timing defaults, in seconds.
const (
	DefaultDetectWaitSeconds   = 3
	DefaultPollIntervalSeconds = 2
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.haven",
		Providers: ProvidersConfig{
			DetectWaitSeconds:   DefaultDetectWaitSeconds,
			PollIntervalSeconds: DefaultPollIntervalSeconds,
			AutoConnect:         true,
			RPC: RPCProviderConfig{
				Enabled:       true,
				URL:           DefaultRPCURL,
				FallbackURLs:  DefaultFallbackRPCs,
				ChainID:       1,
				RatePerSecond: 5,
				Burst:         10,
			},
			Local: LocalProviderConfig{
				Enabled:      false,
				KeystoreFile: "~/.haven/keystore.age",
				ChainID:      1,
				Accounts:     1,
			},
		},
		Storage: StorageConfig{
			Tier:           "",
			KeyBucketHours: 24,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			// Relative paths resolve under the home directory.
			File: "haven.log",
		},
	}
}
