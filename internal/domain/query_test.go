package domain

import "testing"

func TestParseStreamID(t *testing.T) {
	tests := []struct {
		raw  string
		want StreamID
	}{
		{"tt0133093", StreamID{IMDbID: "tt0133093"}},
		{" tt0944947:1:2 ", StreamID{IMDbID: "tt0944947", Season: 1, Episode: 2, Episodic: true}},
		{"tt0944947:0:3", StreamID{IMDbID: "tt0944947", Season: 0, Episode: 3, Episodic: true}},
		{"tt0944947::3", StreamID{IMDbID: "tt0944947"}},
		{"tt0944947:1", StreamID{IMDbID: "tt0944947"}},
		{"tt0944947:x:-3", StreamID{IMDbID: "tt0944947"}},
		{"tt0944947:1:2:3", StreamID{IMDbID: "tt0944947"}},
		{"", StreamID{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseStreamID(tt.raw); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestNewQueryHasEpisode(t *testing.T) {
	q := NewQuery(Meta{Name: "  Dark ", Year: 2017}, MediaKindSeries, StreamID{IMDbID: "tt5753856", Season: 1, Episode: 2, Episodic: true})
	if q.Name != "Dark" || q.Year != 2017 || q.Kind != MediaKindSeries {
		t.Fatalf("unexpected query: %+v", q)
	}
	if !q.HasEpisode() {
		t.Fatalf("expected episode query")
	}

	movie := NewQuery(Meta{Name: "The Matrix"}, MediaKindMovie, StreamID{IMDbID: "tt0133093"})
	if movie.HasEpisode() {
		t.Fatalf("expected no episode for movie query")
	}

	partial := NewQuery(Meta{Name: "Dark"}, MediaKindSeries, StreamID{Season: 1})
	if partial.HasEpisode() {
		t.Fatalf("expected no episode without episode number")
	}

	special := NewQuery(Meta{Name: "Dark"}, MediaKindSeries, ParseStreamID("tt5753856:0:3"))
	if !special.HasEpisode() || special.Season != 0 || special.Episode != 3 {
		t.Fatalf("expected season 0 special to keep its episode, got %+v", special)
	}
}

func TestNormalizeMediaKind(t *testing.T) {
	cases := map[string]MediaKind{
		"movie":    MediaKindMovie,
		"series":   MediaKindSeries,
		" SERIES ": MediaKindSeries,
		"":         MediaKindMovie,
		"channel":  MediaKindMovie,
	}
	for raw, want := range cases {
		if got := NormalizeMediaKind(raw); got != want {
			t.Errorf("NormalizeMediaKind(%q) = %q, want %q", raw, got, want)
		}
	}
}
