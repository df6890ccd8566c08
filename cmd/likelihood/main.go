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

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/climo-likelihood/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climo-likelihood/internal/adapter/kafka"
	"github.com/couchcryptid/climo-likelihood/internal/adapter/mapbox"
	"github.com/couchcryptid/climo-likelihood/internal/adapter/power"
	"github.com/couchcryptid/climo-likelihood/internal/config"
	"github.com/couchcryptid/climo-likelihood/internal/domain"
	"github.com/couchcryptid/climo-likelihood/internal/observability"
	"github.com/couchcryptid/climo-likelihood/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// POWER_FIXTURE replaces the live archive with a local payload.
	var provider pipeline.SeriesProvider
	if cfg.PowerFixture != "" {
		provider = power.NewFileProvider(cfg.PowerFixture, logger)
		logger.Info("using POWER fixture", "path", cfg.PowerFixture)
	} else {
		provider = power.NewClient(power.Config{
			BaseURL:    cfg.PowerBaseURL,
			Community:  cfg.PowerCommunity,
			Start:      cfg.PowerStart,
			End:        cfg.PowerEnd,
			Timeout:    cfg.PowerTimeout,
			MaxRetries: cfg.PowerMaxRetries,
		}, metrics, logger)
		logger.Info("using NASA POWER", "base_url", cfg.PowerBaseURL, "start", cfg.PowerStart, "end", cfg.PowerEnd)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("result publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultsTopic)
	}

	p := pipeline.New(provider, geocoder, publisher, cfg.Settings(), clockwork.NewRealClock(), metrics, logger)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:              cfg.HTTPAddr,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		DefaultWindowDays: cfg.DefaultWindowDays,
		WriteTimeout:      time.Duration(cfg.PowerMaxRetries+1)*cfg.PowerTimeout + 15*time.Second,
	}, p, p.Geocoder(), metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

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
