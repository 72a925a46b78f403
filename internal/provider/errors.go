package provider

import (
	havenerr "github.com/havenhq/haven/pkg/errors"
)

// Arbitration errors. These alias the shared error values so callers
// can match them without importing pkg/errors directly.
var (
	// ErrUserRejected indicates the user declined the action in their
	// wallet. Terminal: never retried, never falls back.
	ErrUserRejected = havenerr.ErrUserRejected

	// ErrNoProvider indicates the registry is empty.
	ErrNoProvider = havenerr.ErrNoProvider

	// ErrUnknownProvider indicates the named provider is not registered.
	ErrUnknownProvider = havenerr.ErrUnknownProvider

	// ErrProviderUnavailable indicates the provider's backing endpoint
	// is missing or non-functional.
	ErrProviderUnavailable = havenerr.ErrProviderUnavailable
)
