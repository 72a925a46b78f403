package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenhq/haven/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected config.LogLevel
	}{
		{"off", config.LogLevelOff},
		{"none", config.LogLevelOff},
		{"error", config.LogLevelError},
		{"DEBUG", config.LogLevelDebug},
		{"  debug  ", config.LogLevelDebug},
		{"bogus", config.LogLevelError},
		{"", config.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, config.ParseLogLevel(tt.input))
		})
	}
}

func TestLogger_WritesAtLevel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "haven.log")
	logger, err := config.NewLogger(config.LogLevelDebug, path)
	require.NoError(t, err)

	logger.Debug("detection pass found %d providers", 2)
	logger.Error("request failed: %s", "boom")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path) // #nosec G304 -- test temp path
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] detection pass found 2 providers")
	assert.Contains(t, string(data), "[ERROR] request failed: boom")
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "haven.log")
	logger, err := config.NewLogger(config.LogLevelError, path)
	require.NoError(t, err)

	logger.Debug("should be dropped")
	logger.Error("should be kept")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path) // #nosec G304 -- test temp path
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should be dropped")
	assert.Contains(t, string(data), "should be kept")
}

func TestNullLogger(t *testing.T) {
	t.Parallel()

	logger := config.NullLogger()
	logger.Debug("discarded")
	logger.Error("discarded")
	assert.Equal(t, config.LogLevelOff, logger.Level())
	require.NoError(t, logger.Close())
}

func TestLogger_Writer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "haven.log")
	logger, err := config.NewLogger(config.LogLevelDebug, path)
	require.NoError(t, err)

	w := logger.Writer(config.LogLevelDebug)
	_, err = w.Write([]byte("piped line\n"))
	require.NoError(t, err)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path) // #nosec G304 -- test temp path
	require.NoError(t, err)
	assert.Contains(t, string(data), "piped line")
}
