package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jdevops/portal-login/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			pool := d.pg.PoolHandle()
			if pool == nil {
				return errors.New("POSTGRES_DSN is required to run migrations")
			}
			return persistence.RunMigrations(pool, d.logger)
		},
	}
}
