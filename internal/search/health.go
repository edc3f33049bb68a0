package search

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"torrentstream/streamaddon/internal/domain"
)

type indexerHealth struct {
	consecutiveFailures int
	lastError           string
	lastSuccessAt       time.Time
	lastFailureAt       time.Time
	lastLatency         time.Duration
	lastTimeout         bool
	lastQuery           string
	totalRequests       int64
	totalFailures       int64
	timeoutCount        int64
}

// healthBook keeps per-indexer outcomes across searches. It never skips an
// indexer; it only reports.
type healthBook struct {
	mu   sync.Mutex
	byID map[string]*indexerHealth
}

func newHealthBook() *healthBook {
	return &healthBook{byID: make(map[string]*indexerHealth)}
}

func (b *healthBook) record(indexerID, query string, err error, latency time.Duration, now time.Time) {
	id := strings.TrimSpace(indexerID)
	if b == nil || id == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.byID[id]
	if state == nil {
		state = &indexerHealth{}
		b.byID[id] = state
	}
	state.totalRequests++
	state.lastQuery = strings.TrimSpace(query)
	if latency > 0 {
		state.lastLatency = latency
	}
	state.lastTimeout = isTimeoutLikeError(err)
	if state.lastTimeout {
		state.timeoutCount++
	}

	if err == nil {
		state.consecutiveFailures = 0
		state.lastError = ""
		state.lastSuccessAt = now
		return
	}
	state.consecutiveFailures++
	state.totalFailures++
	state.lastFailureAt = now
	state.lastError = err.Error()
}

// snapshot returns the diagnostics sorted by indexer id.
func (b *healthBook) snapshot() []domain.IndexerDiagnostics {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := make([]domain.IndexerDiagnostics, 0, len(b.byID))
	for id, state := range b.byID {
		item := domain.IndexerDiagnostics{
			ID:                  id,
			ConsecutiveFailures: state.consecutiveFailures,
			LastError:           state.lastError,
			LastLatencyMS:       state.lastLatency.Milliseconds(),
			LastTimeout:         state.lastTimeout,
			LastQuery:           state.lastQuery,
			TotalRequests:       state.totalRequests,
			TotalFailures:       state.totalFailures,
			TimeoutCount:        state.timeoutCount,
		}
		if !state.lastSuccessAt.IsZero() {
			lastSuccessAt := state.lastSuccessAt
			item.LastSuccessAt = &lastSuccessAt
		}
		if !state.lastFailureAt.IsZero() {
			lastFailureAt := state.lastFailureAt
			item.LastFailureAt = &lastFailureAt
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
	return items
}

func isTimeoutLikeError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "timeout") || strings.Contains(value, "deadline exceeded")
}
