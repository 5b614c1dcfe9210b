package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	"docvault/internal/logger"
	"docvault/internal/repository/sqlrepo"
	"docvault/internal/service"
	"docvault/internal/storage"
)

// components is everything a command needs, built once from configuration.
type components struct {
	cfg        *config.AppConfig
	log        *zap.Logger
	db         *sql.DB
	registry   *prometheus.Registry
	documents  service.DocumentService
	reconciler *service.Reconciler
}

// Close releases the database handle and flushes the logger.
func (c *components) Close() error {
	err := c.db.Close()
	_ = c.log.Sync()
	return err
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log.With(zap.String("env", cfg.Env)), nil
}

// bootstrap opens the stores, migrates the schema and wires the services.
func bootstrap(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*components, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migration.EnsureMigrated(ctx, db, cfg.Database.Driver, log); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to migrate database: %w", err), db.Close())
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize blob storage: %w", err), db.Close())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "documents"),
	)
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	repo := sqlrepo.NewDocumentSQL(db)
	docs := service.NewDocumentService(store, repo, service.Options{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		Logger:         log.Named("documents"),
		Metrics:        metrics,
	})
	rec := service.NewReconciler(store, repo, cfg.Reconcile.GracePeriod, log.Named("reconcile"), metrics)

	log.Info("components_ready",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Int64("max_upload_bytes", cfg.Storage.MaxUploadBytes),
	)

	return &components{
		cfg:        cfg,
		log:        log,
		db:         db,
		registry:   reg,
		documents:  docs,
		reconciler: rec,
	}, nil
}
