package ethrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenhq/haven/internal/provider"
	havenerr "github.com/havenhq/haven/pkg/errors"
)

func TestSourceProbeUsesPrimary(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(rpcHandler(t, "eth_chainId", "0x1"))
	defer server.Close()

	source := NewSource(provider.SourceInfo{Name: "production-api", Priority: 80}, server.URL, SourceOptions{})

	p, err := source.Probe(context.Background())
	require.NoError(t, err)

	reader, ok := p.(provider.ChainReader)
	require.True(t, ok)
	chainID, err := reader.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0x1", chainID)
}

func TestSourceProbeFallsBackToSecondaryURL(t *testing.T) {
	t.Parallel()

	fallback := httptest.NewServer(rpcHandler(t, "eth_chainId", "0x1"))
	defer fallback.Close()

	source := NewSource(
		provider.SourceInfo{Name: "production-api", Priority: 80},
		"http://127.0.0.1:1",
		SourceOptions{FallbackURLs: []string{fallback.URL}},
	)

	p, err := source.Probe(context.Background())
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestSourceProbeAllEndpointsDown(t *testing.T) {
	t.Parallel()

	source := NewSource(
		provider.SourceInfo{Name: "production-api", Priority: 80},
		"http://127.0.0.1:1",
		SourceOptions{FallbackURLs: []string{"http://127.0.0.1:2"}},
	)

	_, err := source.Probe(context.Background())
	require.ErrorIs(t, err, havenerr.ErrProviderUnavailable)
}

func TestProviderRequestRoundTrip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)

		result := "0x1"
		if req["method"] == "eth_blockNumber" {
			result = "0x10"
		}
		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req["id"],
			"result":  result,
		}
		err = json.NewEncoder(w).Encode(resp)
		assert.NoError(t, err)
	}))
	defer server.Close()

	source := NewSource(provider.SourceInfo{Name: "production-api", Priority: 80}, server.URL, SourceOptions{})
	p, err := source.Probe(context.Background())
	require.NoError(t, err)

	raw, err := p.Request(context.Background(), "eth_blockNumber")
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"0x10"`), raw)
}
