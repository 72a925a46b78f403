package cli

import (
	"github.com/spf13/cobra"

	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/output"
	"github.com/havenhq/haven/internal/storage"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// keysValue supplies the secret on the command line instead of a
	// hidden prompt. Intended for scripting; shows up in shell history.
	keysValue string
	// keysForce skips the confirmation prompt for destructive
	// operations.
	keysForce bool
)

// keysCmd is the parent command for API key operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage stored API keys",
	Long:  `Store, retrieve, and remove API keys in the active storage tier.`,
}

// keysSetCmd stores an API key.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysSetCmd = &cobra.Command{
	Use:   "set <provider>",
	Short: "Store an API key",
	Long: `Store an API key for the named provider. The value is read from
a hidden prompt unless --value is given.

Example:
  haven keys set openai`,
	Args: cobra.ExactArgs(1),
	RunE: runKeysSet,
}

// keysGetCmd retrieves an API key.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysGetCmd = &cobra.Command{
	Use:   "get <provider>",
	Short: "Retrieve an API key",
	Long: `Print the stored API key for the named provider.

Example:
  haven keys get openai`,
	Args: cobra.ExactArgs(1),
	RunE: runKeysGet,
}

// keysListCmd lists stored key names.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored API key providers",
	Long: `List the provider names that have a stored API key. Values are
never printed.

Example:
  haven keys list`,
	Aliases: []string{"ls"},
	RunE:    runKeysList,
}

// keysRemoveCmd removes one API key.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysRemoveCmd = &cobra.Command{
	Use:   "remove <provider>",
	Short: "Remove a stored API key",
	Long: `Remove the stored API key for the named provider.

Example:
  haven keys remove openai`,
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE:    runKeysRemove,
}

// keysClearCmd removes every API key.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored API key",
	Long: `Remove every stored API key. Other records in the storage tier
are untouched.

Example:
  haven keys clear --force`,
	RunE: runKeysClear,
}

// keysMigrateCmd sweeps legacy storage locations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keysMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate keys from legacy storage files",
	Long: `Sweep pre-tiered storage files into the active storage tier.
Entries that cannot be decoded under the old scheme are dropped.

Example:
  haven keys migrate`,
	RunE: runKeysMigrate,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysGetCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysRemoveCmd)
	keysCmd.AddCommand(keysClearCmd)
	keysCmd.AddCommand(keysMigrateCmd)

	keysSetCmd.Flags().StringVar(&keysValue, "value", "", "key value (prompted when omitted)")
	keysClearCmd.Flags().BoolVar(&keysForce, "force", false, "skip the confirmation prompt")
}

func runKeysSet(cmd *cobra.Command, args []string) error {
	mgr, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	value := keysValue
	if value == "" {
		value, err = promptSecretFn("Enter key value: ")
		if err != nil {
			return err
		}
	}

	store := storage.NewKeyStore(mgr.Backend())
	if err := store.Set(args[0], value); err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]string{"provider": args[0], "tier": mgr.Tier()})
	}
	out(cmd.OutOrStdout(), "Stored key for %s (%s tier).\n", args[0], mgr.Tier())
	return nil
}

func runKeysGet(cmd *cobra.Command, args []string) error {
	mgr, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	store := storage.NewKeyStore(mgr.Backend())
	value, err := store.Get(args[0])
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]string{"provider": args[0], "value": value})
	}
	outln(cmd.OutOrStdout(), value)
	return nil
}

func runKeysList(cmd *cobra.Command, _ []string) error {
	mgr, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	store := storage.NewKeyStore(mgr.Backend())
	providers, err := store.List()
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]any{"providers": providers, "tier": mgr.Tier()})
	}

	w := cmd.OutOrStdout()
	if len(providers) == 0 {
		outln(w, "No API keys stored.")
		return nil
	}

	table := output.NewTable("PROVIDER")
	for _, name := range providers {
		table.AddRow(name)
	}
	if err := table.Render(w); err != nil {
		return err
	}
	out(w, "\n%d key(s) in the %s tier.\n", len(providers), mgr.Tier())
	return nil
}

func runKeysRemove(cmd *cobra.Command, args []string) error {
	mgr, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	store := storage.NewKeyStore(mgr.Backend())
	if err := store.Remove(args[0]); err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]string{"removed": args[0]})
	}
	out(cmd.OutOrStdout(), "Removed key for %s.\n", args[0])
	return nil
}

func runKeysClear(cmd *cobra.Command, _ []string) error {
	if !keysForce && !promptConfirmFn("Remove every stored API key?") {
		outln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	mgr, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	store := storage.NewKeyStore(mgr.Backend())
	if err := store.Clear(); err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]bool{"cleared": true})
	}
	outln(cmd.OutOrStdout(), "All API keys removed.")
	return nil
}

func runKeysMigrate(cmd *cobra.Command, _ []string) error {
	mgr, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	home := config.ExpandHome(cfg.Home)
	sealer := legacySealer(home)

	result, err := storage.Migrate(home, mgr.Backend(), sealer, logger)
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]int{"moved": result.Moved, "dropped": result.Dropped})
	}
	out(cmd.OutOrStdout(), "Migrated %d key(s), dropped %d.\n", result.Moved, result.Dropped)
	return nil
}
