package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	havenerr "github.com/havenhq/haven/pkg/errors"
)

func setKeysValue(t *testing.T, value string) {
	t.Helper()

	orig := keysValue
	t.Cleanup(func() { keysValue = orig })
	keysValue = value
}

func TestKeysSetGetRemove(t *testing.T) {
	setupCLITest(t)
	setKeysValue(t, "sk-test-123")

	cmd, buf := testCommand(t)
	require.NoError(t, runKeysSet(cmd, []string{"openai"}))
	assert.Contains(t, buf.String(), "Stored key for openai")

	cmd, buf = testCommand(t)
	require.NoError(t, runKeysGet(cmd, []string{"openai"}))
	assert.Contains(t, buf.String(), "sk-test-123")

	cmd, buf = testCommand(t)
	require.NoError(t, runKeysList(cmd, nil))
	assert.Contains(t, buf.String(), "openai")

	cmd, _ = testCommand(t)
	require.NoError(t, runKeysRemove(cmd, []string{"openai"}))

	cmd, _ = testCommand(t)
	err := runKeysGet(cmd, []string{"openai"})
	require.ErrorIs(t, err, havenerr.ErrKeyNotFound)
}

func TestKeysSetPrompted(t *testing.T) {
	setupCLITest(t)
	setKeysValue(t, "")
	withPromptValue(t, "prompted-secret")

	cmd, _ := testCommand(t)
	require.NoError(t, runKeysSet(cmd, []string{"anthropic"}))

	cmd, buf := testCommand(t)
	require.NoError(t, runKeysGet(cmd, []string{"anthropic"}))
	assert.Contains(t, buf.String(), "prompted-secret")
}

func TestKeysClearForce(t *testing.T) {
	setupCLITest(t)
	setKeysValue(t, "value")

	origForce := keysForce
	t.Cleanup(func() { keysForce = origForce })
	keysForce = true

	cmd, _ := testCommand(t)
	require.NoError(t, runKeysSet(cmd, []string{"one"}))
	cmd, _ = testCommand(t)
	require.NoError(t, runKeysSet(cmd, []string{"two"}))

	cmd, _ = testCommand(t)
	require.NoError(t, runKeysClear(cmd, nil))

	cmd, buf := testCommand(t)
	require.NoError(t, runKeysList(cmd, nil))
	assert.Contains(t, buf.String(), "No API keys stored")
}

func TestKeysClearAborted(t *testing.T) {
	setupCLITest(t)
	setKeysValue(t, "value")

	origConfirm := promptConfirmFn
	t.Cleanup(func() { promptConfirmFn = origConfirm })
	promptConfirmFn = func(_ string) bool { return false }

	cmd, _ := testCommand(t)
	require.NoError(t, runKeysSet(cmd, []string{"kept"}))

	cmd, buf := testCommand(t)
	require.NoError(t, runKeysClear(cmd, nil))
	assert.Contains(t, buf.String(), "Aborted")

	cmd, buf = testCommand(t)
	require.NoError(t, runKeysList(cmd, nil))
	assert.Contains(t, buf.String(), "kept")
}

func TestKeysMigrateLegacyPlainFile(t *testing.T) {
	setupCLITest(t)

	legacy := map[string]string{"apikey.openai": "legacy-value"}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)
	legacyPath := filepath.Join(cfg.Home, "apikeys.json")
	require.NoError(t, os.WriteFile(legacyPath, data, 0o600))

	cmd, buf := testCommand(t)
	require.NoError(t, runKeysMigrate(cmd, nil))
	assert.Contains(t, buf.String(), "Migrated 1 key(s)")

	// Legacy file is consumed by the sweep
	_, err = os.Stat(legacyPath)
	assert.True(t, os.IsNotExist(err))

	cmd, buf = testCommand(t)
	require.NoError(t, runKeysGet(cmd, []string{"openai"}))
	assert.Contains(t, buf.String(), "legacy-value")
}
