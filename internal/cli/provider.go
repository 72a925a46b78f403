package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/havenhq/haven/internal/output"
	"github.com/havenhq/haven/internal/provider"
)

// providerCmd is the parent command for provider operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providerCmd = &cobra.Command{
	Use:     "provider",
	Short:   "Manage wallet provider connections",
	Long:    `Detect, connect to, and query wallet provider sources.`,
	Aliases: []string{"providers"},
}

// providerListCmd lists detected providers.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List detected wallet providers",
	Long: `List every provider source that answered the detection probe,
in arbitration order.

Example:
  haven provider list`,
	Aliases: []string{"ls"},
	RunE:    runProviderList,
}

// providerConnectCmd connects to a provider.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providerConnectCmd = &cobra.Command{
	Use:   "connect <name>",
	Short: "Connect to a wallet provider",
	Long: `Connect to the named provider and request its accounts.

The provider stays pinned as the active provider until it disappears
or another provider is selected. The connection is remembered for
auto-connect on the next run.

Example:
  haven provider connect rpc`,
	Args: cobra.ExactArgs(1),
	RunE: runProviderConnect,
}

// providerSwitchCmd switches the active provider.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providerSwitchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Switch the active provider",
	Long: `Pin the named provider as the active provider without
requesting accounts.

Example:
  haven provider switch local-signer`,
	Args: cobra.ExactArgs(1),
	RunE: runProviderSwitch,
}

// providerRequestCmd sends a raw request through the active provider.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providerRequestCmd = &cobra.Command{
	Use:   "request <method> [params...]",
	Short: "Send a raw request to the active provider",
	Long: `Send a method call through the active provider, falling back to
other detected providers if it fails. Parameters are parsed as JSON
where possible and passed as strings otherwise.

Example:
  haven provider request eth_chainId
  haven provider request personal_sign "hello" 0xAddress`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProviderRequest,
}

// providerStatusCmd shows the current connection state.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connection status",
	Long: `Show the current connection state: active provider, accounts,
and chain. Reconnects to the last provider first when auto-connect
is enabled.

Example:
  haven provider status`,
	RunE: runProviderStatus,
}

// providerRecord is the JSON shape of one registry entry.
type providerRecord struct {
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	Preferred bool   `json:"preferred"`
	Active    bool   `json:"active"`
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(providerCmd)
	providerCmd.AddCommand(providerListCmd)
	providerCmd.AddCommand(providerConnectCmd)
	providerCmd.AddCommand(providerSwitchCmd)
	providerCmd.AddCommand(providerRequestCmd)
	providerCmd.AddCommand(providerStatusCmd)
}

func runProviderList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	mgr, err := buildProviderManager(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	records := mgr.AvailableProviders()
	active := mgr.ActiveProvider()

	rows := make([]providerRecord, 0, len(records))
	for _, r := range records {
		rows = append(rows, providerRecord{
			Name:      r.Name,
			Priority:  r.Priority,
			Preferred: r.Preferred,
			Active:    active != nil && active.Name == r.Name,
		})
	}

	if formatter.IsJSON() {
		return formatter.Print(rows)
	}

	w := cmd.OutOrStdout()
	if len(rows) == 0 {
		outln(w, "No wallet providers detected.")
		return nil
	}

	table := output.NewTable("NAME", "PRIORITY", "PREFERRED", "ACTIVE")
	for _, row := range rows {
		table.AddRow(row.Name, fmt.Sprintf("%d", row.Priority), yesNo(row.Preferred), yesNo(row.Active))
	}
	return table.Render(w)
}

func runProviderConnect(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, providerMgr, err := buildStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = providerMgr.Close() }()
	defer store.Close()

	if err := store.Connect(ctx, args[0]); err != nil {
		return err
	}

	st := store.State()
	if formatter.IsJSON() {
		return formatter.Print(st)
	}

	w := cmd.OutOrStdout()
	outln(w, "Connected.")
	out(w, "  Provider: %s\n", st.Provider)
	if st.Address != "" {
		out(w, "  Address:  %s\n", st.Address)
	}
	if st.ChainID != "" {
		out(w, "  Chain:    %s\n", st.ChainID)
	}
	return nil
}

func runProviderSwitch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	mgr, err := buildProviderManager(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	if err := mgr.SwitchProvider(args[0]); err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(map[string]string{"active": args[0]})
	}
	out(cmd.OutOrStdout(), "Active provider: %s\n", args[0])
	return nil
}

func runProviderRequest(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	mgr, err := buildProviderManager(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	params := make([]any, 0, len(args)-1)
	for _, raw := range args[1:] {
		params = append(params, parseParam(raw))
	}

	result, err := mgr.Request(ctx, args[0], params...)
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(json.RawMessage(result))
	}
	outln(cmd.OutOrStdout(), string(result))
	return nil
}

func runProviderStatus(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, providerMgr, err := buildStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = providerMgr.Close() }()
	defer store.Close()

	if cfg.Providers.AutoConnect {
		store.AutoConnect(ctx)
	}

	conn := providerMgr.ConnectionState(ctx)
	if formatter.IsJSON() {
		return formatter.Print(newConnectionStatus(conn))
	}

	w := cmd.OutOrStdout()
	if !conn.IsAvailable {
		outln(w, "No wallet providers available.")
		return nil
	}

	out(w, "  Available: %s\n", yesNo(conn.IsAvailable))
	out(w, "  Connected: %s\n", yesNo(conn.IsConnected))
	if conn.ActiveProvider != "" {
		out(w, "  Provider:  %s\n", conn.ActiveProvider)
	}
	if conn.Address != "" {
		out(w, "  Address:   %s\n", conn.Address)
	}
	if conn.ChainID != "" {
		out(w, "  Chain:     %s\n", conn.ChainID)
	}
	return nil
}

// connectionStatus is the JSON shape of provider status output.
type connectionStatus struct {
	IsAvailable    bool     `json:"is_available"`
	IsConnected    bool     `json:"is_connected"`
	ActiveProvider string   `json:"active_provider,omitempty"`
	Address        string   `json:"address,omitempty"`
	ChainID        string   `json:"chain_id,omitempty"`
	Providers      []string `json:"providers"`
}

func newConnectionStatus(conn provider.ConnectionState) connectionStatus {
	names := make([]string, 0, len(conn.AvailableProviders))
	for _, r := range conn.AvailableProviders {
		names = append(names, r.Name)
	}
	return connectionStatus{
		IsAvailable:    conn.IsAvailable,
		IsConnected:    conn.IsConnected,
		ActiveProvider: conn.ActiveProvider,
		Address:        conn.Address,
		ChainID:        conn.ChainID,
		Providers:      names,
	}
}

// parseParam interprets a CLI argument as JSON where possible and
// falls back to a plain string.
func parseParam(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
