package search

import (
	"sort"

	"torrentstream/streamaddon/internal/domain"
)

// RankOptions disables a stage when its value is zero.
type RankOptions struct {
	MinSeeders int
	MaxResults int
}

// Rank filters by minimum seeders, orders by seeders descending and truncates.
// The sort is stable, so equal seeders keep arrival order. Records without a
// seeders count sort after every record that has one. The input is not
// modified.
func Rank(records []domain.Record, opts RankOptions) []domain.Record {
	ranked := make([]domain.Record, 0, len(records))
	for _, record := range records {
		if opts.MinSeeders > 0 && (record.Seeders == nil || *record.Seeders < opts.MinSeeders) {
			continue
		}
		ranked = append(ranked, record)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return seedersKey(ranked[i]) > seedersKey(ranked[j])
	})

	if opts.MaxResults > 0 && len(ranked) > opts.MaxResults {
		ranked = ranked[:opts.MaxResults]
	}
	return ranked
}

func seedersKey(record domain.Record) int {
	if record.Seeders == nil {
		return -1
	}
	return *record.Seeders
}
