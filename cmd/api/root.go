package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jdevops/portal-login/internal/config"
	"github.com/jdevops/portal-login/internal/observability"
	"github.com/jdevops/portal-login/internal/persistence"
	"github.com/jdevops/portal-login/internal/repository"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "api",
		Short: "JCode portal login service",
		Long: `Issues and rotates access/refresh tokens, keeps the course membership
cache in step with the database and hands authenticated users over to the
JCode execution service.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newReconcileCmd())
	return root
}

// deps holds the process-wide connections shared by every command.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
	redis  *persistence.Redis
	store  repository.Store
}

func bootstrap(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	logger = logger.With(zap.String("service", cfg.App.Name), zap.String("version", cfg.App.Version))

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		store = repository.NewPostgresStore(pool)
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		store = repository.NewMemoryStore()
	}

	return &deps{
		cfg:    cfg,
		logger: logger,
		pg:     pg,
		redis:  persistence.NewRedis(cfg.Redis, logger),
		store:  store,
	}, nil
}

func (d *deps) Close() {
	d.redis.Close()
	d.pg.Close()
	_ = d.logger.Sync()
}
