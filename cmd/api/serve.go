package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docvault/internal/config"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/otel"
	"docvault/internal/scheduler"
	"docvault/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and browser client.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// newServer builds the fiber app with global middleware and all routes.
func newServer(c *components) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               "docvault",
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             c.cfg.BodyLimit(),
		DisableStartupMessage: !c.cfg.IsDevelopment(),
	})

	prom, err := middleware.NewPrometheusMiddleware(c.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register http metrics: %w", err)
	}

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(c.log.Named("http")))
	app.Use(prom.Handler())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: c.cfg.CORSAllowOrigins}))
	app.Use(otelfiber.Middleware())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, c.db, c.documents, web.FileSystem())

	return app, nil
}

func runServe(ctx context.Context) error {
	cfg := config.Load()

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	shutdownTracing, err := otel.Init(ctx, log.Named("otel"))
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	c, err := bootstrap(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	app, err := newServer(c)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(scheduler.Config{
		Log:        log.Named("scheduler"),
		Reconciler: c.reconciler,
		Interval:   cfg.Reconcile.Interval,
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http_listen", zap.String("addr", ":"+cfg.Port))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutdown_started")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = errors.Join(
		app.ShutdownWithContext(shutdownCtx),
		shutdownTracing(shutdownCtx),
	)
	if err != nil {
		log.Error("shutdown_failed", zap.Error(err))
		return err
	}
	log.Info("shutdown_complete")
	return nil
}
