package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	db "picmon/internal/db"
	"picmon/internal/db/migrate"
)

func (a *App) installMigrate() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending archive migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := db.Close(conn); closeErr != nil {
					a.logger.Error("db close", "error", closeErr)
				}
			}()

			applied, err := migrate.Run(cmd.Context(), conn, a.logger)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				_, err = fmt.Fprintln(out, "archive is up to date")
				return err
			}
			for _, m := range applied {
				if _, err := fmt.Fprintf(out, "applied %s_%s\n", m.Version, m.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	a.cmd.AddCommand(cmd)
}
