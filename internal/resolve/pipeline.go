package resolve

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"torrentstream/streamaddon/internal/domain"
	"torrentstream/streamaddon/internal/metrics"
)

type RedirectResolver interface {
	Resolve(ctx context.Context, locator string) string
}

type TorrentLocator interface {
	Resolve(ctx context.Context, locator string) (TorrentInfo, error)
}

type PipelineConfig struct {
	Redirector RedirectResolver
	Locator    TorrentLocator
	// Workers is the number of records resolved at once; 1 keeps resolution
	// strictly serial.
	Workers    int
	DHTEnabled bool
	Logger     *slog.Logger
}

// Pipeline resolves ranked records into stream descriptors. Each record goes
// through redirect resolution, then locator parsing, on a single worker.
type Pipeline struct {
	redirector RedirectResolver
	locator    TorrentLocator
	workers    int
	dhtEnabled bool
	logger     *slog.Logger
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		redirector: cfg.Redirector,
		locator:    cfg.Locator,
		workers:    workers,
		dhtEnabled: cfg.DHTEnabled,
		logger:     logger,
	}
}

// Run returns once every record has been resolved or dropped. Streams keep
// the order of records.
func (p *Pipeline) Run(ctx context.Context, kind domain.MediaKind, records []domain.Record) []domain.Stream {
	slots := make([]*domain.Stream, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, record := range records {
		i, record := i, record
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if stream, ok := p.resolveOne(gctx, kind, record); ok {
				slots[i] = &stream
			}
			return nil
		})
	}
	_ = g.Wait()

	streams := make([]domain.Stream, 0, len(records))
	for _, stream := range slots {
		if stream != nil {
			streams = append(streams, *stream)
		}
	}
	return streams
}

func (p *Pipeline) resolveOne(ctx context.Context, kind domain.MediaKind, record domain.Record) (domain.Stream, bool) {
	locator := record.Locator()
	if locator == "" {
		metrics.ResolveOutcomesTotal.WithLabelValues("no_locator").Inc()
		p.logger.Debug("record without locator dropped", slog.String("title", record.Title))
		return domain.Stream{}, false
	}

	terminal := locator
	if p.redirector != nil {
		terminal = p.redirector.Resolve(ctx, locator)
	}

	info, err := p.locator.Resolve(ctx, terminal)
	if err != nil {
		metrics.ResolveOutcomesTotal.WithLabelValues("failed").Inc()
		p.logger.Debug("locator resolution failed",
			slog.String("title", record.Title),
			slog.String("source", record.Source),
			slog.String("error", err.Error()),
		)
		return domain.Stream{}, false
	}

	if isMagnet(terminal) {
		metrics.ResolveOutcomesTotal.WithLabelValues("magnet").Inc()
	} else {
		metrics.ResolveOutcomesTotal.WithLabelValues("torrent").Inc()
	}
	return BuildStream(record, info, kind, p.dhtEnabled), true
}
