// Package provider arbitrates between multiple wallet-like providers.
//
// Providers are surfaced by registered Sources. The Manager probes
// sources on a polling loop, keeps a priority-ordered registry of what
// is currently available, designates one active provider, and falls
// back across the rest when a request fails.
package provider

import (
	"context"
	"encoding/json"
	"errors"
)

// Provider is one wallet-like endpoint able to serve JSON-RPC style
// operation calls.
type Provider interface {
	// Request issues a single operation call.
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// AccountReader is implemented by providers that can enumerate their
// accounts without a full request round trip.
type AccountReader interface {
	Accounts(ctx context.Context) ([]string, error)
}

// ChainReader is implemented by providers that know their chain ID.
type ChainReader interface {
	ChainID(ctx context.Context) (string, error)
}

// Notifier is implemented by providers that can push account or chain
// change notifications. Subscribe returns an unsubscribe function.
type Notifier interface {
	Subscribe(fn func(ChangeEvent)) (unsubscribe func())
}

// Closer is implemented by providers that hold releasable resources.
type Closer interface {
	Close() error
}

// ChangeEvent describes a native provider-side change.
type ChangeEvent struct {
	// Kind is ChangeAccounts or ChangeChain.
	Kind string

	// Accounts carries the new account list for ChangeAccounts.
	Accounts []string

	// ChainID carries the new chain ID for ChangeChain.
	ChainID string
}

// ChangeEvent kinds.
const (
	ChangeAccounts = "accountsChanged"
	ChangeChain    = "chainChanged"
)

// SourceInfo describes a registered source.
type SourceInfo struct {
	// Name identifies providers from this source in the registry.
	Name string

	// Priority orders records; higher wins.
	Priority int

	// Preferred breaks priority ties in this source's favor.
	Preferred bool
}

// Source surfaces a provider when its backing endpoint is available.
// Sources are registered once; availability is re-checked on every
// detection pass.
type Source interface {
	// Describe returns the source's registry identity.
	Describe() SourceInfo

	// Probe returns a ready provider, or an error when the backing
	// endpoint is currently unavailable.
	Probe(ctx context.Context) (Provider, error)
}

// Record is one detected provider in the registry. Records are
// recomputed wholesale on every detection pass, so identity is not
// stable across passes.
type Record struct {
	// Name is the source name.
	Name string

	// Priority orders the registry; higher first.
	Priority int

	// Preferred breaks priority ties.
	Preferred bool

	provider Provider
}

// Provider returns the record's provider handle.
func (r Record) Provider() Provider {
	return r.provider
}

// rpcError is the JSON-RPC error shape used for rejection detection.
type rpcError interface {
	ErrorCode() int
}

// userRejectedCode is the EIP-1193 "user rejected request" error code.
const userRejectedCode = 4001

// errorClass is the taxonomy used for logging and fallback decisions.
type errorClass int

const (
	classOther errorClass = iota
	classUserRejected
	classUnavailable
)

// classify maps an error onto the taxonomy. User rejections are
// terminal; everything else is eligible for fallback.
func classify(err error) errorClass {
	if err == nil {
		return classOther
	}

	var coded rpcError
	if errors.As(err, &coded) && coded.ErrorCode() == userRejectedCode {
		return classUserRejected
	}

	switch {
	case errors.Is(err, ErrUserRejected):
		return classUserRejected
	case errors.Is(err, ErrProviderUnavailable):
		return classUnavailable
	default:
		return classOther
	}
}
