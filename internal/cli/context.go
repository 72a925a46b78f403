package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// commandContext derives a context for a command run, bounded by the
// global --timeout flag and canceled when the process receives an
// interrupt (the signal handling lives in main).
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
