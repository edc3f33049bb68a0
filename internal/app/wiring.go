package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"torrentstream/streamaddon/internal/addon"
	"torrentstream/streamaddon/internal/providers/cinemeta"
	"torrentstream/streamaddon/internal/providers/torznab"
	"torrentstream/streamaddon/internal/resolve"
	"torrentstream/streamaddon/internal/search"
)

// Components are the long-lived collaborators built from a Config.
type Components struct {
	Engine      *addon.Engine
	Coordinator *search.Coordinator
	Jackett     *torznab.Client
	Redis       *redis.Client
}

func (c Components) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

func NewLogger(levelRaw, formatRaw string) *slog.Logger {
	level := ParseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func ParseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func BuildComponents(cfg Config, logger *slog.Logger) Components {
	jackett := torznab.NewClient(torznab.Config{
		Host:        cfg.JackettHost,
		APIKey:      cfg.JackettAPIKey,
		UserAgent:   cfg.UserAgent,
		OpenTimeout: cfg.OpenTimeout,
		ReadTimeout: cfg.ReadTimeout,
		Logger:      logger,
	})

	coordinator := search.NewCoordinator(jackett,
		search.WithLogger(logger),
		search.WithDeadline(cfg.ResponseTimeout),
		search.WithMaxParallel(cfg.SearchMaxParallel),
	)

	redisClient := newRedisClient(cfg.RedisURL, logger)
	metadata := cinemeta.NewClient(cinemeta.Config{
		BaseURL:  cfg.CinemetaURL,
		Client:   &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Redis:    redisClient,
		CacheTTL: cfg.MetaCacheTTL,
		Logger:   logger,
	})

	// Descriptor hosts are arbitrary; reuse the Jackett timeouts for them.
	resolveClient := torznab.NewHTTPClient(cfg.OpenTimeout, cfg.ReadTimeout)
	resolveClient.Timeout = cfg.OpenTimeout + cfg.ReadTimeout
	pipeline := resolve.NewPipeline(resolve.PipelineConfig{
		Redirector: resolve.NewRedirector(resolve.RedirectorConfig{
			Client:    resolveClient,
			UserAgent: cfg.UserAgent,
			Logger:    logger,
		}),
		Locator:    resolve.NewLocator(resolveClient, cfg.UserAgent),
		Workers:    cfg.ResolveWorkers,
		DHTEnabled: cfg.DHTEnabled,
		Logger:     logger,
	})

	engine := addon.NewEngine(addon.Config{
		Metadata: metadata,
		Searcher: coordinator,
		Resolver: pipeline,
		Rank: search.RankOptions{
			MinSeeders: cfg.MinimumSeeds,
			MaxResults: cfg.MaximumResults,
		},
		Logger: logger,
	})

	return Components{Engine: engine, Coordinator: coordinator, Jackett: jackett, Redis: redisClient}
}

// newRedisClient returns nil when no URL is configured or Redis is not
// reachable; metadata lookups then go straight to the service.
func newRedisClient(rawURL string, logger *slog.Logger) *redis.Client {
	redisURL := strings.TrimSpace(rawURL)
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, metadata cache disabled", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable, metadata cache disabled", slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", slog.String("addr", opts.Addr))
	return client
}
