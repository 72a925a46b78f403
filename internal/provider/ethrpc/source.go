package ethrpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/havenhq/haven/internal/provider"
	havenerr "github.com/havenhq/haven/pkg/errors"
)

// probeTimeout bounds the availability check for one endpoint.
const probeTimeout = 2 * time.Second

// SourceOptions configures an RPC source.
type SourceOptions struct {
	// FallbackURLs are tried in order when the primary URL does not
	// answer a probe.
	FallbackURLs []string

	// RatePerSecond and Burst configure the per-endpoint limiter.
	// Zero values use the defaults.
	RatePerSecond float64
	Burst         int

	// Retry overrides the default retry policy.
	Retry *RetryConfig
}

// Source surfaces a JSON-RPC endpoint as a wallet provider. A probe
// checks the primary URL first and each fallback in order, so a dead
// primary degrades to a live fallback instead of reporting the source
// unavailable.
type Source struct {
	info    provider.SourceInfo
	urls    []string
	limiter *RateLimiter
	retry   RetryConfig
}

// Compile-time interface check
var _ provider.Source = (*Source)(nil)

// NewSource creates an RPC source for the primary endpoint URL.
func NewSource(info provider.SourceInfo, url string, opts SourceOptions) *Source {
	ratePerSecond := opts.RatePerSecond
	burst := opts.Burst
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	if burst <= 0 {
		burst = 10
	}

	retryCfg := DefaultRetryConfig()
	if opts.Retry != nil {
		retryCfg = *opts.Retry
	}

	return &Source{
		info:    info,
		urls:    append([]string{url}, opts.FallbackURLs...),
		limiter: NewRateLimiter(ratePerSecond, burst),
		retry:   retryCfg,
	}
}

// Describe returns the source's registry identity.
func (s *Source) Describe() provider.SourceInfo {
	return s.info
}

// Probe returns a provider over the first endpoint that answers a
// chain-id query.
func (s *Source) Probe(ctx context.Context) (provider.Provider, error) {
	for _, url := range s.urls {
		client := NewClient(url)

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		_, err := client.ChainID(probeCtx)
		cancel()
		if err != nil {
			continue
		}

		return &rpcProvider{
			client:  client,
			limiter: s.limiter,
			retry:   s.retry,
		}, nil
	}

	return nil, havenerr.WithDetails(havenerr.ErrProviderUnavailable, map[string]string{
		"source": s.info.Name,
	})
}

// rpcProvider is one live endpoint behind the source.
type rpcProvider struct {
	client  *Client
	limiter *RateLimiter
	retry   RetryConfig
}

// Compile-time interface checks
var (
	_ provider.Provider    = (*rpcProvider)(nil)
	_ provider.ChainReader = (*rpcProvider)(nil)
	_ provider.Closer      = (*rpcProvider)(nil)
)

// Request issues a JSON-RPC call with rate limiting and
// transient-failure retry.
func (p *rpcProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if err := p.limiter.Wait(ctx, p.client.URL()); err != nil {
		return nil, err
	}

	return retry(ctx, p.retry, func() (json.RawMessage, error) {
		return p.client.Call(ctx, method, params...)
	})
}

// ChainID reports the endpoint's chain ID.
func (p *rpcProvider) ChainID(ctx context.Context) (string, error) {
	return p.client.ChainID(ctx)
}

// Close releases the underlying HTTP client.
func (p *rpcProvider) Close() error {
	return p.client.Close()
}
