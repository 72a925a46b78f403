package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/havenhq/haven/internal/provider"
	havenerr "github.com/havenhq/haven/pkg/errors"
)

// SourceName is the registry name for the local signer.
const SourceName = "local-signer"

// DefaultPriority ranks the local signer below any external endpoint.
const DefaultPriority = 10

// ErrUnsupportedMethod indicates the local signer cannot serve the
// requested operation.
var ErrUnsupportedMethod = &havenerr.HavenError{
	Code:     "LOCAL_UNSUPPORTED_METHOD",
	Message:  "method not supported by the local signer",
	ExitCode: havenerr.ExitInput,
}

// Source surfaces a configured Signer as a wallet provider.
type Source struct {
	signer   *Signer
	priority int
}

// Compile-time interface check
var _ provider.Source = (*Source)(nil)

// NewSource wraps a signer. A zero priority uses the default.
func NewSource(signer *Signer, priority int) *Source {
	if priority == 0 {
		priority = DefaultPriority
	}
	return &Source{signer: signer, priority: priority}
}

// Describe returns the source's registry identity.
func (s *Source) Describe() provider.SourceInfo {
	return provider.SourceInfo{Name: SourceName, Priority: s.priority}
}

// Probe returns the signer-backed provider. A local signer has no
// external endpoint to fail, so a configured source always probes
// successfully.
func (s *Source) Probe(context.Context) (provider.Provider, error) {
	if s.signer == nil {
		return nil, havenerr.WithDetails(havenerr.ErrProviderUnavailable, map[string]string{
			"source": SourceName,
		})
	}
	return &localProvider{signer: s.signer}, nil
}

// localProvider serves the signing subset of the wallet RPC surface
// in-process.
type localProvider struct {
	signer *Signer
}

// Compile-time interface checks
var (
	_ provider.Provider      = (*localProvider)(nil)
	_ provider.AccountReader = (*localProvider)(nil)
	_ provider.ChainReader   = (*localProvider)(nil)
)

// Accounts returns the derived addresses.
func (p *localProvider) Accounts(context.Context) ([]string, error) {
	return p.signer.Addresses(), nil
}

// ChainID returns the configured chain ID.
func (p *localProvider) ChainID(context.Context) (string, error) {
	return p.signer.ChainID(), nil
}

// Request serves the account, chain, and personal-sign operations. nil
// context use is fine: nothing here blocks.
func (p *localProvider) Request(_ context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case "eth_accounts", "eth_requestAccounts":
		return json.Marshal(p.signer.Addresses())

	case "eth_chainId":
		return json.Marshal(p.signer.ChainID())

	case "personal_sign":
		message, address, err := parseSignParams(params)
		if err != nil {
			return nil, err
		}
		sig, err := p.signer.SignPersonal(address, message)
		if err != nil {
			return nil, err
		}
		return json.Marshal(sig)

	default:
		return nil, havenerr.WithDetails(ErrUnsupportedMethod, map[string]string{
			"method": method,
		})
	}
}

// parseSignParams unpacks the personal_sign parameter pair
// [message, address].
func parseSignParams(params []any) (message, address string, err error) {
	if len(params) < 2 {
		return "", "", fmt.Errorf("%w: personal_sign needs [message, address]", havenerr.ErrInvalidInput)
	}

	message, ok := params[0].(string)
	if !ok {
		return "", "", fmt.Errorf("%w: message must be a string", havenerr.ErrInvalidInput)
	}
	address, ok = params[1].(string)
	if !ok {
		return "", "", fmt.Errorf("%w: address must be a string", havenerr.ErrInvalidInput)
	}
	return message, address, nil
}
