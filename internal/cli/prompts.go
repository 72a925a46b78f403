package cli

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/havenhq/haven/internal/havencrypto"
	havenerr "github.com/havenhq/haven/pkg/errors"
)

// Prompt indirection points, swapped in tests.
//
//nolint:gochecknoglobals // test seam for interactive prompts
var (
	promptPasswordFn    = promptPassword
	promptNewPasswordFn = promptNewPassword
	promptSecretFn      = promptSecret
	promptConfirmFn     = promptConfirmation
)

// promptPassword prompts for a password with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptPassword(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	password, err := term.ReadPassword(syscall.Stdin)
	outln(os.Stderr) // newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	return password, nil
}

// promptNewPassword prompts for a new password with confirmation.
// The caller is responsible for zeroing the returned bytes after use.
func promptNewPassword() ([]byte, error) {
	password, err := promptPassword("Enter encryption password: ")
	if err != nil {
		return nil, err
	}

	if len(password) < 8 {
		havencrypto.ZeroBytes(password)
		return nil, havenerr.WithSuggestion(
			havenerr.ErrInvalidInput,
			"password must be at least 8 characters",
		)
	}

	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		havencrypto.ZeroBytes(password)
		return nil, err
	}
	defer havencrypto.ZeroBytes(confirm)

	if string(password) != string(confirm) {
		havencrypto.ZeroBytes(password)
		return nil, havenerr.WithSuggestion(
			havenerr.ErrInvalidInput,
			"passwords do not match",
		)
	}

	return password, nil
}

// promptSecret prompts for a secret value with hidden input and
// returns it as a string, rejecting empty input.
func promptSecret(prompt string) (string, error) {
	raw, err := promptPassword(prompt)
	if err != nil {
		return "", err
	}
	defer havencrypto.ZeroBytes(raw)

	value := strings.TrimSpace(string(raw))
	if value == "" {
		return "", havenerr.WithSuggestion(
			havenerr.ErrEmptyValue,
			"enter a non-empty value",
		)
	}
	return value, nil
}

// promptConfirmation asks the user to confirm a destructive action.
func promptConfirmation(question string) bool {
	out(os.Stderr, "%s [y/N]: ", question)

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
