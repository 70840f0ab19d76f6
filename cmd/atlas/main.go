package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/energy-atlas-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/energy-atlas-service/internal/adapter/kafka"
	"github.com/couchcryptid/energy-atlas-service/internal/adapter/source"
	"github.com/couchcryptid/energy-atlas-service/internal/config"
	"github.com/couchcryptid/energy-atlas-service/internal/export"
	"github.com/couchcryptid/energy-atlas-service/internal/observability"
	"github.com/couchcryptid/energy-atlas-service/internal/query"
	"github.com/couchcryptid/energy-atlas-service/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	src, closeSource, err := newSource(cfg, logger)
	if err != nil {
		logger.Error("failed to create dataset source", "error", err)
		os.Exit(1)
	}
	defer closeSource()

	st := store.New(src, logger, metrics, store.WithLoadTimeout(cfg.DatasetTimeout))
	svc := query.New(st, logger, metrics, query.WithZoomThreshold(cfg.MapZoomThreshold))
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the snapshot so the first request does not pay for the load.
	// A failure here is not fatal: the next query retries.
	if cfg.Preload {
		go func() {
			if _, err := st.Load(ctx); err != nil {
				logger.Warn("dataset preload failed", "error", err)
			}
		}()
	}

	var writer *kafkaadapter.Writer
	if cfg.ExportEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		exp := export.New(st, writer, logger, metrics)
		go func() {
			if err := exp.Run(ctx); err != nil {
				logger.Error("department export error", "error", err)
			}
		}()
		logger.Info("department export enabled", "topic", cfg.KafkaDepartmentsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("department export disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newSource builds the configured dataset source and a cleanup func.
func newSource(cfg *config.Config, logger *slog.Logger) (store.Source, func(), error) {
	noop := func() {}

	switch cfg.DatasetSource {
	case config.SourceHTTP:
		logger.Info("dataset source", "kind", cfg.DatasetSource, "url", cfg.DatasetURL)
		return source.NewHTTP(cfg.DatasetURL, cfg.DatasetTimeout, logger), noop, nil
	case config.SourcePostgres:
		pg, err := source.NewPostgres(cfg.DatasetDSN)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("dataset source", "kind", cfg.DatasetSource)
		return pg, func() {
			if err := pg.Close(); err != nil {
				logger.Error("postgres close error", "error", err)
			}
		}, nil
	case config.SourceFile:
		logger.Info("dataset source", "kind", cfg.DatasetSource, "path", cfg.DatasetPath)
		return source.NewFile(cfg.DatasetPath), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported dataset source %q", cfg.DatasetSource)
	}
}
