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

	"github.com/prometheus/client_golang/prometheus"

	apihttp "torrentstream/streamaddon/internal/api/http"
	"torrentstream/streamaddon/internal/app"
	"torrentstream/streamaddon/internal/metrics"
	"torrentstream/streamaddon/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), telemetry.ConfigFromEnv("stream-addon"))
	if err != nil {
		logger.Warn("tracing disabled", slog.String("error", err.Error()))
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	logger.Info("configuration loaded",
		slog.String("service", "stream-addon"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("jackettHost", cfg.JackettHost),
		slog.Duration("openTimeout", cfg.OpenTimeout),
		slog.Duration("readTimeout", cfg.ReadTimeout),
		slog.Duration("responseTimeout", cfg.ResponseTimeout),
		slog.Int("minimumSeeds", cfg.MinimumSeeds),
		slog.Int("maximumResults", cfg.MaximumResults),
		slog.Bool("dhtEnabled", cfg.DHTEnabled),
		slog.Int("resolveWorkers", cfg.ResolveWorkers),
		slog.Int("searchMaxParallel", cfg.SearchMaxParallel),
		slog.Bool("hasRedis", cfg.RedisURL != ""),
	)

	components := app.BuildComponents(cfg, logger)
	defer components.Close()

	handler := apihttp.NewServer(components.Engine,
		apihttp.WithLogger(logger),
		apihttp.WithDiagnostics(components.Coordinator),
		apihttp.WithManifest(apihttp.DefaultManifest(cfg.AddonID, cfg.AddonName)),
		apihttp.WithRateLimit(float64(cfg.RateLimitRPS), cfg.RateLimitBurst),
	).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Stream requests wait for every indexer (or the response deadline) and
		// /search/stream is long-lived, so writes are not bounded here.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("stream add-on started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("stream add-on stopped")
}
