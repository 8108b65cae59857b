package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdevops/portal-login/internal/cache"
	"github.com/jdevops/portal-login/internal/worker"
)

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild the course membership cache from the database once",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			membership := cache.NewMembershipCache(d.redis.Client, d.cfg.Redis.KeyPrefix)
			stats, err := worker.NewReconcileWorker(d.store, membership, 0, d.logger).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "courses=%d members=%d removed=%d failed=%d\n",
				stats.Courses, stats.Members, stats.Removed, stats.Failed)
			return nil
		},
	}
}
