package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"torrentstream/streamaddon/internal/domain"
	"torrentstream/streamaddon/internal/metrics"
)

// Directory is the indexer side of a search: the list of configured
// endpoints and a per-endpoint query.
type Directory interface {
	ListEndpoints(ctx context.Context) ([]domain.Endpoint, error)
	Search(ctx context.Context, endpoint domain.Endpoint, query domain.Query) ([]domain.Record, error)
}

type Coordinator struct {
	directory   Directory
	deadline    time.Duration
	maxParallel int64
	logger      *slog.Logger
	health      *healthBook
}

type CoordinatorOption func(*Coordinator)

// WithDeadline completes a search after d even if some indexers have not
// replied. Zero disables the deadline.
func WithDeadline(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.deadline = d
		}
	}
}

// WithMaxParallel bounds the number of indexers queried at once. Zero means
// every indexer is queried immediately.
func WithMaxParallel(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxParallel = int64(n)
		}
	}
}

func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCoordinator(directory Directory, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		directory: directory,
		logger:    slog.Default(),
		health:    newHealthBook(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search fans the query out to every configured indexer. onPartial receives
// each successful indexer batch as it arrives; onComplete fires exactly once
// with everything collected, when all indexers replied or the deadline
// elapsed. Callbacks are never invoked concurrently and either may be nil.
// Search returns after onComplete has returned.
func (c *Coordinator) Search(ctx context.Context, query domain.Query, onPartial, onComplete func([]domain.Record)) {
	startedAt := time.Now()

	endpoints, err := c.directory.ListEndpoints(ctx)
	if err != nil {
		c.logger.Warn("indexer directory unavailable", slog.String("error", err.Error()))
	}
	if err != nil || len(endpoints) == 0 {
		if onPartial != nil {
			onPartial(nil)
		}
		metrics.SearchCompletionsTotal.WithLabelValues(triggerNoIndexers).Inc()
		if onComplete != nil {
			onComplete(nil)
		}
		return
	}

	run := &searchRun{
		remaining:  len(endpoints),
		completion: newCompletion(),
		onPartial:  onPartial,
		onComplete: onComplete,
	}

	if c.deadline > 0 {
		timer := time.AfterFunc(c.deadline, func() { run.complete(triggerDeadline) })
		defer timer.Stop()
	}
	stop := context.AfterFunc(ctx, func() { run.complete(triggerCancelled) })
	defer stop()

	var sem *semaphore.Weighted
	if c.maxParallel > 0 {
		sem = semaphore.NewWeighted(c.maxParallel)
	}

	for _, endpoint := range endpoints {
		go c.queryEndpoint(ctx, run, sem, endpoint, query)
	}

	<-run.completion.done

	run.mu.Lock()
	collected := len(run.records)
	trigger := run.trigger
	pending := run.remaining
	run.mu.Unlock()

	c.logger.Info("search completed",
		slog.String("query", query.Name),
		slog.String("trigger", trigger),
		slog.Int("indexers", len(endpoints)),
		slog.Int("pending", pending),
		slog.Int("records", collected),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)
}

// Collect runs Search and returns the completed record set.
func (c *Coordinator) Collect(ctx context.Context, query domain.Query) []domain.Record {
	var records []domain.Record
	c.Search(ctx, query, nil, func(all []domain.Record) {
		records = all
	})
	return records
}

// Diagnostics reports per-indexer request outcomes since startup.
func (c *Coordinator) Diagnostics() []domain.IndexerDiagnostics {
	return c.health.snapshot()
}

func (c *Coordinator) queryEndpoint(ctx context.Context, run *searchRun, sem *semaphore.Weighted, endpoint domain.Endpoint, query domain.Query) {
	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			run.reply(nil, false)
			return
		}
		defer sem.Release(1)
	}

	if !run.completion.collecting() {
		// Nobody is waiting for this indexer anymore.
		run.reply(nil, false)
		return
	}

	startedAt := time.Now()
	records, err := c.directory.Search(ctx, endpoint, query)
	c.health.record(endpoint.ID, query.Name, err, time.Since(startedAt), time.Now())
	if err != nil {
		c.logger.Warn("indexer search failed",
			slog.String("indexer", endpoint.ID),
			slog.String("error", err.Error()),
			slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
		)
		run.reply(nil, false)
		return
	}
	c.logger.Debug("indexer search finished",
		slog.String("indexer", endpoint.ID),
		slog.Int("records", len(records)),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)
	run.reply(records, true)
}

// searchRun owns the accumulating records and the reply counter of one
// search.
type searchRun struct {
	mu         sync.Mutex
	remaining  int
	records    []domain.Record
	trigger    string
	completion *completion
	onPartial  func([]domain.Record)
	onComplete func([]domain.Record)
}

// reply accounts for one indexer. Successful batches are appended and
// delivered while the search is still collecting; later ones are dropped.
func (r *searchRun) reply(records []domain.Record, ok bool) {
	r.mu.Lock()
	r.remaining--
	last := r.remaining == 0
	if ok {
		if r.completion.collecting() {
			batch := append([]domain.Record(nil), records...)
			r.records = append(r.records, batch...)
			if r.onPartial != nil {
				r.onPartial(batch)
			}
		} else {
			metrics.LateResultsTotal.Inc()
		}
	}
	r.mu.Unlock()

	if last {
		r.complete(triggerAllReplied)
	}
}

func (r *searchRun) complete(trigger string) {
	if !r.completion.begin() {
		return
	}
	r.mu.Lock()
	r.trigger = trigger
	all := append([]domain.Record(nil), r.records...)
	if r.onComplete != nil {
		r.onComplete(all)
	}
	r.mu.Unlock()

	metrics.SearchCompletionsTotal.WithLabelValues(trigger).Inc()
	r.completion.finish()
}
