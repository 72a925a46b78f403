// Package errors provides structured error handling for Haven.
// It defines sentinel errors, exit codes, and helpers for adding
// context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes used by the CLI.
const (
	ExitSuccess    = 0 // Successful execution
	ExitGeneral    = 1 // General/unknown error
	ExitInput      = 2 // Invalid input
	ExitRejected   = 3 // User rejected the request in their wallet
	ExitNotFound   = 4 // Resource not found
	ExitPermission = 5 // Permission denied or no usable provider
)

// HavenError is the structured error type for Haven.
type HavenError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *HavenError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *HavenError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for HavenError.
func (e *HavenError) Is(target error) bool {
	var t *HavenError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &HavenError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &HavenError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrNotFound = &HavenError{
		Code:     "NOT_FOUND",
		Message:  "resource not found",
		ExitCode: ExitNotFound,
	}

	// Provider errors.
	ErrUserRejected = &HavenError{
		Code:     "USER_REJECTED",
		Message:  "request rejected by user",
		ExitCode: ExitRejected,
	}

	ErrNoProvider = &HavenError{
		Code:     "NO_PROVIDER",
		Message:  "no wallet provider available",
		ExitCode: ExitPermission,
	}

	ErrUnknownProvider = &HavenError{
		Code:     "UNKNOWN_PROVIDER",
		Message:  "provider is not registered",
		ExitCode: ExitNotFound,
	}

	ErrProviderUnavailable = &HavenError{
		Code:     "PROVIDER_UNAVAILABLE",
		Message:  "provider is not responding",
		ExitCode: ExitGeneral,
	}

	ErrNotConnected = &HavenError{
		Code:     "NOT_CONNECTED",
		Message:  "no active wallet connection",
		ExitCode: ExitPermission,
	}

	// Storage errors.
	ErrKeyNotFound = &HavenError{
		Code:     "KEY_NOT_FOUND",
		Message:  "key not found",
		ExitCode: ExitNotFound,
	}

	ErrEmptyValue = &HavenError{
		Code:     "EMPTY_VALUE",
		Message:  "value must not be empty",
		ExitCode: ExitInput,
	}

	ErrNoStorageTier = &HavenError{
		Code:     "NO_STORAGE_TIER",
		Message:  "no storage tier could be initialized",
		ExitCode: ExitGeneral,
	}

	ErrUnknownStorageTier = &HavenError{
		Code:     "UNKNOWN_STORAGE_TIER",
		Message:  "unknown storage tier",
		ExitCode: ExitInput,
	}

	ErrDecryptionFailed = &HavenError{
		Code:     "DECRYPTION_FAILED",
		Message:  "decryption failed - wrong password or corrupted file",
		ExitCode: ExitGeneral,
	}

	// Local signer errors.
	ErrInvalidMnemonic = &HavenError{
		Code:     "INVALID_MNEMONIC",
		Message:  "invalid mnemonic phrase",
		ExitCode: ExitInput,
	}

	ErrInvalidAddress = &HavenError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}
)

// New creates a new HavenError with the given code and message.
func New(code, message string) *HavenError {
	return &HavenError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var he *HavenError
	if errors.As(err, &he) {
		return &HavenError{
			Code:       he.Code,
			Message:    fmt.Sprintf("%s: %s", msg, he.Message),
			Details:    he.Details,
			Suggestion: he.Suggestion,
			Cause:      err,
			ExitCode:   he.ExitCode,
		}
	}

	return &HavenError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var he *HavenError
	if errors.As(err, &he) {
		return &HavenError{
			Code:       he.Code,
			Message:    he.Message,
			Details:    details,
			Suggestion: he.Suggestion,
			Cause:      he.Cause,
			ExitCode:   he.ExitCode,
		}
	}

	return &HavenError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var he *HavenError
	if errors.As(err, &he) {
		return &HavenError{
			Code:       he.Code,
			Message:    he.Message,
			Details:    he.Details,
			Suggestion: suggestion,
			Cause:      he.Cause,
			ExitCode:   he.ExitCode,
		}
	}

	return &HavenError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// ExitCode returns the exit code for an error.
// Returns ExitSuccess for nil and ExitGeneral for unstructured errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var he *HavenError
	if errors.As(err, &he) {
		return he.ExitCode
	}
	return ExitGeneral
}
