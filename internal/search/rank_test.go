package search

import (
	"testing"

	"torrentstream/streamaddon/internal/domain"
)

func titles(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Title)
	}
	return out
}

func TestRank(t *testing.T) {
	unknown := domain.Record{Title: "unknown"}
	input := []domain.Record{
		seeded("a", 5),
		unknown,
		seeded("b", 10),
		seeded("c", 0),
		seeded("d", 5),
	}

	tests := []struct {
		name string
		opts RankOptions
		want []string
	}{
		{"sort only", RankOptions{}, []string{"b", "a", "d", "c", "unknown"}},
		{"min seeders", RankOptions{MinSeeders: 5}, []string{"b", "a", "d"}},
		{"min one drops unknown", RankOptions{MinSeeders: 1}, []string{"b", "a", "d"}},
		{"max results", RankOptions{MaxResults: 2}, []string{"b", "a"}},
		{"both", RankOptions{MinSeeders: 1, MaxResults: 10}, []string{"b", "a", "d"}},
		{"min above all", RankOptions{MinSeeders: 100}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(Rank(input, tt.opts))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestRankPropertiesHold(t *testing.T) {
	var input []domain.Record
	for i := 0; i < 40; i++ {
		input = append(input, seeded("r", (i*37)%23))
	}
	opts := RankOptions{MinSeeders: 4, MaxResults: 12}

	ranked := Rank(input, opts)
	if len(ranked) > opts.MaxResults {
		t.Fatalf("expected at most %d records, got %d", opts.MaxResults, len(ranked))
	}
	for i, r := range ranked {
		if r.SeedersOrZero() < opts.MinSeeders {
			t.Fatalf("record %d below min seeders: %d", i, r.SeedersOrZero())
		}
		if i > 0 && ranked[i-1].SeedersOrZero() < r.SeedersOrZero() {
			t.Fatalf("seeders increase at %d: %d < %d", i, ranked[i-1].SeedersOrZero(), r.SeedersOrZero())
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	input := []domain.Record{seeded("low", 1), seeded("high", 9)}
	_ = Rank(input, RankOptions{MaxResults: 1})
	if input[0].Title != "low" || input[1].Title != "high" {
		t.Fatalf("input reordered: %v", titles(input))
	}
}
