package addon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"torrentstream/streamaddon/internal/domain"
	"torrentstream/streamaddon/internal/search"
	"torrentstream/streamaddon/internal/telemetry"
)

// MetadataSource resolves an external title id to its name and year. A nil
// meta with a nil error is a miss.
type MetadataSource interface {
	Lookup(ctx context.Context, kind domain.MediaKind, imdbID string) (*domain.Meta, error)
}

type Searcher interface {
	Search(ctx context.Context, query domain.Query, onPartial, onComplete func([]domain.Record))
}

type Resolver interface {
	Run(ctx context.Context, kind domain.MediaKind, records []domain.Record) []domain.Stream
}

type Config struct {
	Metadata MetadataSource
	Searcher Searcher
	Resolver Resolver
	Rank     search.RankOptions
	Logger   *slog.Logger
}

// Engine answers stream requests: metadata lookup, indexer fan-out, ranking
// and locator resolution.
type Engine struct {
	metadata MetadataSource
	searcher Searcher
	resolver Resolver
	rank     search.RankOptions
	logger   *slog.Logger
}

func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		metadata: cfg.Metadata,
		searcher: cfg.Searcher,
		resolver: cfg.Resolver,
		rank:     cfg.Rank,
		logger:   logger,
	}
}

// Streams returns the playable streams for id ("tt0133093" or
// "tt0944947:1:2"). The only error is domain.ErrMissingID; every other
// failure yields an empty list.
func (e *Engine) Streams(ctx context.Context, kind domain.MediaKind, id string) (domain.StreamResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "addon.streams")
	defer span.End()
	span.SetAttributes(attribute.String("addon.type", string(kind)), attribute.String("addon.id", id))

	startedAt := time.Now()
	query, ok, err := e.prepare(ctx, kind, id)
	if err != nil {
		return domain.StreamResponse{}, err
	}
	if !ok {
		return domain.EmptyStreamResponse(), nil
	}

	var collected []domain.Record
	e.searcher.Search(ctx, query, nil, func(records []domain.Record) {
		collected = records
	})

	ranked := search.Rank(collected, e.rank)
	streams := e.resolver.Run(ctx, kind, ranked)
	if streams == nil {
		streams = []domain.Stream{}
	}

	span.SetAttributes(attribute.Int("addon.records", len(collected)), attribute.Int("addon.streams", len(streams)))
	e.logger.Info("streams resolved",
		slog.String("type", string(kind)),
		slog.String("id", id),
		slog.String("query", query.Name),
		slog.Int("records", len(collected)),
		slog.Int("ranked", len(ranked)),
		slog.Int("streams", len(streams)),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)
	return domain.StreamResponse{Streams: streams}, nil
}

// Records runs the search part only and reports partial batches as they
// arrive. It returns the ranked record set.
func (e *Engine) Records(ctx context.Context, kind domain.MediaKind, id string, onPartial func([]domain.Record)) ([]domain.Record, error) {
	query, ok, err := e.prepare(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Record{}, nil
	}

	var collected []domain.Record
	e.searcher.Search(ctx, query, onPartial, func(records []domain.Record) {
		collected = records
	})
	return search.Rank(collected, e.rank), nil
}

// prepare builds the search query. ok is false when the title is unknown.
func (e *Engine) prepare(ctx context.Context, kind domain.MediaKind, id string) (domain.Query, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Query{}, false, domain.ErrMissingID
	}
	streamID := domain.ParseStreamID(id)

	meta, err := e.metadata.Lookup(ctx, kind, streamID.IMDbID)
	if err != nil {
		e.logger.Warn("metadata lookup failed",
			slog.String("id", streamID.IMDbID),
			slog.String("error", fmt.Errorf("%w: %v", domain.ErrMetadataMiss, err).Error()),
		)
		return domain.Query{}, false, nil
	}
	if meta == nil || strings.TrimSpace(meta.Name) == "" {
		e.logger.Info("metadata not found", slog.String("type", string(kind)), slog.String("id", streamID.IMDbID))
		return domain.Query{}, false, nil
	}
	return domain.NewQuery(*meta, kind, streamID), true, nil
}
