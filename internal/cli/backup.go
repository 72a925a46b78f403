package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/havenhq/haven/internal/backup"
	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/havencrypto"
	"github.com/havenhq/haven/internal/storage"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// backupInput is the path to a backup file for restore/verify.
	backupInput string
)

// backupCmd is the parent command for backup operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage API key backups",
	Long:  `Create, verify, and restore encrypted backups of stored API keys.`,
}

// backupCreateCmd creates a backup.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an API key backup",
	Long: `Export every stored API key into an encrypted backup file under
~/.haven/backups/. The file is encrypted with the password you choose
and records only the key count in its manifest.

Example:
  haven backup create`,
	RunE: runBackupCreate,
}

// backupVerifyCmd verifies a backup.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a backup file",
	Long: `Check the structure and checksum of a backup file without
decrypting it.

Example:
  haven backup verify --input ~/.haven/backups/keys-20260830-120000.haven`,
	RunE: runBackupVerify,
}

// backupRestoreCmd restores keys from a backup.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore API keys from a backup",
	Long: `Decrypt a backup file and write its keys into the active storage
tier. Existing keys with the same provider name are overwritten.

Example:
  haven backup restore --input ~/.haven/backups/keys-20260830-120000.haven`,
	RunE: runBackupRestore,
}

// backupListCmd lists available backups.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backups",
	Long: `List backup files in the backups directory.

Example:
  haven backup list`,
	Aliases: []string{"ls"},
	RunE:    runBackupList,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupVerifyCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupListCmd)

	backupVerifyCmd.Flags().StringVar(&backupInput, "input", "", "path to backup file (required)")
	_ = backupVerifyCmd.MarkFlagRequired("input")

	backupRestoreCmd.Flags().StringVar(&backupInput, "input", "", "path to backup file (required)")
	_ = backupRestoreCmd.MarkFlagRequired("input")
}

// backupService wires the backup service over the active storage
// tier. The returned storage manager must be closed by the caller.
func backupService() (*backup.Service, *storage.Manager, error) {
	mgr, err := openStorage()
	if err != nil {
		return nil, nil, err
	}

	backupDir := filepath.Join(config.ExpandHome(cfg.Home), "backups")
	keys := storage.NewKeyStore(mgr.Backend())
	return backup.NewService(backupDir, keys), mgr, nil
}

func runBackupCreate(cmd *cobra.Command, _ []string) error {
	svc, mgr, err := backupService()
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	password, err := promptNewPasswordFn()
	if err != nil {
		return err
	}
	defer havencrypto.ZeroBytes(password)

	bak, backupPath, err := svc.Create(password)
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]any{
			"file":      backupPath,
			"key_count": bak.Manifest.KeyCount,
			"checksum":  bak.Checksum,
		})
	}

	w := cmd.OutOrStdout()
	outln(w, "Backup created.")
	outln(w)
	out(w, "  File:     %s\n", backupPath)
	out(w, "  Keys:     %d\n", bak.Manifest.KeyCount)
	out(w, "  Checksum: %s...\n", bak.Checksum[:16])
	outln(w)
	outln(w, "Store this file securely. You will need the password to restore it.")
	return nil
}

func runBackupVerify(cmd *cobra.Command, _ []string) error {
	svc, mgr, err := backupService()
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	manifest, err := svc.Verify(backupInput)
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(manifest)
	}

	w := cmd.OutOrStdout()
	outln(w, "Backup verified.")
	out(w, "  Created: %s\n", manifest.CreatedAt.Format("2006-01-02 15:04:05"))
	out(w, "  Keys:    %d\n", manifest.KeyCount)
	return nil
}

func runBackupRestore(cmd *cobra.Command, _ []string) error {
	svc, mgr, err := backupService()
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	password, err := promptPasswordFn("Enter backup password: ")
	if err != nil {
		return err
	}
	defer havencrypto.ZeroBytes(password)

	count, err := svc.Restore(backupInput, password)
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]int{"restored": count})
	}
	out(cmd.OutOrStdout(), "Restored %d key(s) into the %s tier.\n", count, mgr.Tier())
	return nil
}

func runBackupList(cmd *cobra.Command, _ []string) error {
	svc, mgr, err := backupService()
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	files, err := svc.List()
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]any{"backups": files})
	}

	w := cmd.OutOrStdout()
	if len(files) == 0 {
		outln(w, "No backups found.")
		return nil
	}
	for _, name := range files {
		outln(w, svc.BackupPath(name))
	}
	return nil
}
