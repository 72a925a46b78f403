package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"

	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/output"
	"github.com/havenhq/haven/internal/storage"
)

// setupCLITest points the package globals at a throwaway home
// directory and restores them on cleanup. CLI tests mutate globals,
// so none of them run in parallel.
func setupCLITest(t *testing.T) {
	t.Helper()

	origCfg, origLogger, origFormatter := cfg, logger, formatter
	t.Cleanup(func() {
		cfg, logger, formatter = origCfg, origLogger, origFormatter
	})

	cfg = config.Defaults()
	cfg.Home = t.TempDir()
	cfg.Storage.Tier = storage.TierEncoded
	cfg.Providers.RPC.Enabled = false
	cfg.Providers.Local.Enabled = false
	cfg.Providers.AutoConnect = false
	cfg.Providers.PollIntervalSeconds = 0
	logger = config.NullLogger()
	formatter = output.NewFormatter(output.FormatText, io.Discard)
}

// testCommand returns a command whose output is captured in a buffer.
func testCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd, buf
}

// withPromptValue stubs the hidden secret prompt.
func withPromptValue(t *testing.T, value string) {
	t.Helper()

	orig := promptSecretFn
	t.Cleanup(func() { promptSecretFn = orig })
	promptSecretFn = func(_ string) (string, error) { return value, nil }
}

// withPromptPassword stubs both password prompts with the same value.
func withPromptPassword(t *testing.T, password string) {
	t.Helper()

	origPW, origNewPW := promptPasswordFn, promptNewPasswordFn
	t.Cleanup(func() {
		promptPasswordFn, promptNewPasswordFn = origPW, origNewPW
	})
	promptPasswordFn = func(_ string) ([]byte, error) {
		return []byte(password), nil
	}
	promptNewPasswordFn = func() ([]byte, error) {
		return []byte(password), nil
	}
}

// rpcTestServer serves a minimal JSON-RPC endpoint backed by a
// method-to-result map.
func rpcTestServer(t *testing.T, results map[string]any) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     any    `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if result, ok := results[req.Method]; ok {
			resp["result"] = result
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}
