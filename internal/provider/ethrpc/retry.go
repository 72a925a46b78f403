package ethrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	havenerr "github.com/havenhq/haven/pkg/errors"
)

// Sentinel errors for retry logic.
var (
	ErrRetryable = &havenerr.HavenError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: havenerr.ExitGeneral,
	}

	ErrRateLimited = &havenerr.HavenError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: havenerr.ExitGeneral,
	}
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	BaseDelay   time.Duration // Initial delay between retries
	MaxDelay    time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns the default retry configuration.
// 4 attempts total (1 initial + 3 retries) with delays: 1s, 2s, 4s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
	}
}

// retry executes the operation with exponential backoff, giving up
// immediately on non-retryable errors. JSON-RPC application errors
// (including user rejections) are never retried.
func retry(ctx context.Context, cfg RetryConfig, operation func() (json.RawMessage, error)) (json.RawMessage, error) {
	var result json.RawMessage
	var err error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}

		if !isRetryable(err) {
			return result, err
		}

		// Don't delay after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			delay := calculateDelay(attempt, cfg.BaseDelay, cfg.MaxDelay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, err)
}

// calculateDelay calculates the delay for the given attempt using exponential backoff with jitter.
// Jitter prevents thundering herd when multiple goroutines retry simultaneously.
func calculateDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << attempt) // 2^attempt * baseDelay
	if delay > maxDelay {
		delay = maxDelay
	}
	// Add jitter: random duration in [delay/2, delay).
	// Cryptographic randomness is not needed for retry jitter.
	half := delay / 2
	return half + rand.N(half) //nolint:gosec // G404: Jitter does not require cryptographic randomness
}

// isRetryable returns true if the error should trigger a retry.
// Transport failures and rate limiting are retryable; a JSON-RPC
// error response means the endpoint is up and answered.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return false
	}

	return errors.Is(err, ErrRetryable) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrRPCRequest)
}

// retryAfterError builds a rate-limited error carrying the parsed
// Retry-After header when present.
func retryAfterError(header string) error {
	if wait := parseRetryAfter(header); wait > 0 {
		return havenerr.WithDetails(ErrRateLimited, map[string]string{
			"retry_after": wait.String(),
		})
	}
	return ErrRateLimited
}

// parseRetryAfter parses the Retry-After header value.
// Returns the duration to wait, or 0 if parsing fails.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	seconds, err := strconv.Atoi(header)
	if err != nil {
		return 0
	}

	return time.Duration(seconds) * time.Second
}
