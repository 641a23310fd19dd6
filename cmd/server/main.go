package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/land-risk-service/internal/adapter/httpapi"
	"github.com/couchcryptid/land-risk-service/internal/adapter/interpret"
	kafkaadapter "github.com/couchcryptid/land-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/land-risk-service/internal/adapter/nasapower"
	"github.com/couchcryptid/land-risk-service/internal/adapter/openelev"
	"github.com/couchcryptid/land-risk-service/internal/adapter/soil"
	"github.com/couchcryptid/land-risk-service/internal/adapter/usgs"
	"github.com/couchcryptid/land-risk-service/internal/aggregate"
	"github.com/couchcryptid/land-risk-service/internal/cache"
	"github.com/couchcryptid/land-risk-service/internal/config"
	"github.com/couchcryptid/land-risk-service/internal/domain"
	"github.com/couchcryptid/land-risk-service/internal/engine"
	"github.com/couchcryptid/land-risk-service/internal/observability"
	"github.com/couchcryptid/land-risk-service/internal/pipeline"
	"github.com/couchcryptid/land-risk-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	aggregator := aggregate.New(
		soil.NewClient(logger),
		nasapower.NewClient(cfg.SourceTimeout, logger),
		usgs.NewClient(cfg.SourceTimeout, logger),
		openelev.NewClient(cfg.SourceTimeout, logger),
		cfg.SourceTimeout,
		logger,
		metrics,
	)

	eng := engine.New(cache.NewTTL(cfg.MemoTTL, nil), cfg.MemoTTL, metrics)

	// Interpretation service (feature-flagged via INTERPRET_ENABLED / INTERPRET_URL).
	var interpreter domain.Interpreter
	if cfg.InterpretEnabled {
		interpreter = interpret.NewClient(cfg.InterpretURL, cfg.InterpretToken, cfg.InterpretTimeout, logger)
		logger.Info("external interpretation enabled", "url", cfg.InterpretURL, "timeout", cfg.InterpretTimeout)
	} else {
		logger.Info("external interpretation disabled, using fallback narratives")
	}

	// Evaluation sink (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var publisher pipeline.EvaluationPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka evaluation sink enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka evaluation sink disabled")
	}

	evaluator := pipeline.New(st, aggregator, eng, interpreter, publisher, cfg.CacheToleranceKm, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, evaluator, st, eng, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Periodically purge expired shared cache rows.
	go purgeLoop(ctx, st, metrics, cfg.PurgeInterval, cfg.CacheTTL, logger)

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
	if err := st.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// purgeLoop removes expired shared parcels on a fixed interval until ctx is
// cancelled. User-claimed parcels are never purged.
func purgeLoop(ctx context.Context, st *store.Store, metrics *observability.Metrics, interval, maxAge time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := st.PurgeExpired(ctx, maxAge)
			if err != nil {
				logger.Error("cache purge failed", "error", err)
				continue
			}
			if purged > 0 {
				metrics.PurgedParcels.Add(float64(purged))
				logger.Info("purged expired parcels", "count", purged)
			}
		}
	}
}
