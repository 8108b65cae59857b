package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/jdevops/portal-login/internal/api/http"
	"github.com/jdevops/portal-login/internal/api/http/handlers"
	"github.com/jdevops/portal-login/internal/auth"
	"github.com/jdevops/portal-login/internal/cache"
	"github.com/jdevops/portal-login/internal/events"
	"github.com/jdevops/portal-login/internal/observability"
	"github.com/jdevops/portal-login/internal/persistence"
	"github.com/jdevops/portal-login/internal/service"
	"github.com/jdevops/portal-login/internal/worker"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the reconcile worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	d, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer d.Close()
	cfg, logger := d.cfg, d.logger

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(d.pg.PoolHandle(), logger); err != nil {
			return err
		}
	}

	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.App.Name,
		AccessTTL:  cfg.Auth.AccessTTL(),
		RefreshTTL: cfg.Auth.RefreshTTL(),
		Cookies: auth.CookiePolicy{
			Secure:   cfg.Cookie.Secure,
			SameSite: cfg.Cookie.SameSite,
			Path:     cfg.Cookie.Path,
			Domain:   cfg.Cookie.Domain,
		},
	})
	membership := cache.NewMembershipCache(d.redis.Client, cfg.Redis.KeyPrefix)
	ledger := cache.NewRefreshLedger(d.redis.Client, cfg.Redis.KeyPrefix)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Store:      d.store,
		Tokens:     tokens,
		Hasher:     auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	enrollment := service.NewEnrollmentService(service.EnrollmentDependencies{
		Store:      d.store,
		Cache:      membership,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	users := service.NewUserService(d.store, membership, dispatcher, logger)
	redirects := service.NewRedirectService(cfg.Redirect, tokens)

	reconciler := worker.NewReconcileWorker(d.store, membership, cfg.Reconcile.Interval(), logger)
	reconciler.Start(ctx)
	defer reconciler.Stop()

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, d.store, d.redis, metrics),
		Auth:           handlers.NewAuthHandler(authService, cfg.Cookie.RefreshName, cfg.Cookie.AccessName),
		Redirect:       handlers.NewRedirectHandler(redirects),
		Courses:        handlers.NewCoursesHandler(enrollment),
		Users:          handlers.NewUsersHandler(users, enrollment, authService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, cfg.Cookie.AccessName),
		LoginLimiter:   httptransport.NewLoginLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		logger.Error("fiber listen", zap.Error(err))
		return err
	case <-waitForShutdown(ctx, logger):
	}

	return app.ShutdownWithTimeout(10 * time.Second)
}

func waitForShutdown(ctx context.Context, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
		case <-ctx.Done():
			logger.Info("shutting down", zap.Error(ctx.Err()))
		}
	}()
	return done
}
