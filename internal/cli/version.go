package cli

import (
	"github.com/spf13/cobra"

	"github.com/havenhq/haven/internal/version"
)

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	info := version.Get()
	if formatter.IsJSON() {
		return formatter.Print(info)
	}
	out(cmd.OutOrStdout(), "%s", info.String())
	return nil
}
