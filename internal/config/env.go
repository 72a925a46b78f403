package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome         = "HAVEN_HOME"
	EnvRPCURL       = "HAVEN_RPC"
	EnvStorageTier  = "HAVEN_STORAGE_TIER"
	EnvOutputFormat = "HAVEN_OUTPUT_FORMAT"
	EnvVerbose      = "HAVEN_VERBOSE"
	EnvLogLevel     = "HAVEN_LOG_LEVEL"
	EnvNoColor      = "NO_COLOR"
	EnvAutoConnect  = "HAVEN_AUTO_CONNECT"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvRPCURL); v != "" {
		cfg.Providers.RPC.URL = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvStorageTier); v != "" {
		cfg.Storage.Tier = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	if v := os.Getenv(EnvAutoConnect); v != "" {
		cfg.Providers.AutoConnect = parseBool(v)
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
