package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/havencrypto"
	"github.com/havenhq/haven/internal/provider/local"
)

// providerKeystoreCmd writes the local signer keystore file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providerKeystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Encrypt a signing mnemonic into the keystore file",
	Long: `Encrypt a BIP39 mnemonic with a passphrase and store it at the
configured keystore path. The local signer decrypts it on demand.

Example:
  haven provider keystore`,
	RunE: runProviderKeystore,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	providerCmd.AddCommand(providerKeystoreCmd)
}

func runProviderKeystore(cmd *cobra.Command, _ []string) error {
	raw, err := promptPasswordFn("Enter mnemonic: ")
	if err != nil {
		return err
	}
	defer havencrypto.ZeroBytes(raw)
	mnemonic := string(raw)

	// Reject invalid phrases before anything touches disk.
	chainID := fmt.Sprintf("0x%x", cfg.Providers.Local.ChainID)
	if _, err := local.NewSigner(mnemonic, "", chainID, 1); err != nil {
		return err
	}

	passphrase, err := promptNewPasswordFn()
	if err != nil {
		return err
	}
	defer havencrypto.ZeroBytes(passphrase)

	ciphertext, err := havencrypto.Encrypt([]byte(mnemonic), string(passphrase))
	if err != nil {
		return err
	}

	keystorePath := config.ExpandHome(cfg.Providers.Local.KeystoreFile)
	if err := os.MkdirAll(filepath.Dir(keystorePath), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(keystorePath, ciphertext, 0o600); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	outln(w, "Keystore written.")
	out(w, "  File: %s\n", keystorePath)
	outln(w)
	outln(w, "Enable the local signer with providers.local.enabled in config.yaml.")
	return nil
}
