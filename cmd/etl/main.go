package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/embiggeneye/crater-etl/internal/adapter/http"
	kafkaadapter "github.com/embiggeneye/crater-etl/internal/adapter/kafka"
	"github.com/embiggeneye/crater-etl/internal/annotations"
	"github.com/embiggeneye/crater-etl/internal/config"
	"github.com/embiggeneye/crater-etl/internal/domain"
	"github.com/embiggeneye/crater-etl/internal/observability"
	"github.com/embiggeneye/crater-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	catalog, err := config.LoadCatalog(cfg.CatalogConfigPath)
	if err != nil {
		logger.Error("failed to load catalog config", "error", err, "path", cfg.CatalogConfigPath)
		os.Exit(1)
	}

	// PSR polygons are an enrichment input, not a hard dependency: a missing
	// or malformed file degrades to running without overlap computation.
	var psr *domain.PSRIndex
	if catalog.PSRGeoJSON != "" {
		psr, err = domain.LoadPSRIndex(catalog.PSRGeoJSON)
		if err != nil {
			logger.Warn("psr polygons unavailable, overlap enrichment disabled",
				"error", err, "path", catalog.PSRGeoJSON)
		} else {
			metrics.PSRPolygonsLoaded.Set(float64(psr.Size()))
			logger.Info("psr polygons loaded", "count", psr.Size(), "path", catalog.PSRGeoJSON)
		}
	}

	store, err := annotations.Open(cfg.AnnotationsDB)
	if err != nil {
		logger.Error("failed to open annotation store", "error", err, "path", cfg.AnnotationsDB)
		os.Exit(1)
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(domain.Options{PixelTransform: catalog.PixelTransform}, psr, logger)
	estimator := pipeline.NewEstimator(catalog.Weights())

	p := pipeline.New(reader, transformer, estimator, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("annotation store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
