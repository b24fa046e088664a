package cli

import (
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy/backend"
)

func (c *CLI) backendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the registered rendering backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			printTitle(out, "backends")
			printBackends(out, backend.Available(), backend.DefaultName())
			return nil
		},
	}
}
