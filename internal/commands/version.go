package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) installVersion() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Returns the running version of " + AppName + " and exits",
		Args:  cobra.NoArgs,
		// Skips config loading.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", AppName, Version)
			return err
		},
	}
	a.cmd.AddCommand(cmd)
}
