package domain

import (
	"strconv"
	"strings"
)

type MediaKind string

const (
	MediaKindMovie  MediaKind = "movie"
	MediaKindSeries MediaKind = "series"
)

func NormalizeMediaKind(raw string) MediaKind {
	switch MediaKind(strings.ToLower(strings.TrimSpace(raw))) {
	case MediaKindSeries:
		return MediaKindSeries
	default:
		return MediaKindMovie
	}
}

// StreamID is an external title identifier such as "tt0133093" or
// "tt0944947:1:2" (series, season 1, episode 2). Episodic is set when both
// numbers were present, including season 0 specials.
type StreamID struct {
	IMDbID   string
	Season   int
	Episode  int
	Episodic bool
}

func ParseStreamID(raw string) StreamID {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	id := StreamID{IMDbID: strings.TrimSpace(parts[0])}
	if len(parts) == 3 {
		season, seasonOK := parseNumber(parts[1])
		episode, episodeOK := parseNumber(parts[2])
		if seasonOK && episodeOK {
			id.Season, id.Episode, id.Episodic = season, episode, true
		}
	}
	return id
}

func parseNumber(raw string) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

type Meta struct {
	Name string `json:"name"`
	Year int    `json:"year,omitempty"`
}

type Query struct {
	Name     string
	Year     int
	Kind     MediaKind
	Season   int
	Episode  int
	Episodic bool
}

func NewQuery(meta Meta, kind MediaKind, id StreamID) Query {
	return Query{
		Name:     strings.TrimSpace(meta.Name),
		Year:     meta.Year,
		Kind:     kind,
		Season:   id.Season,
		Episode:  id.Episode,
		Episodic: id.Episodic,
	}
}

// HasEpisode reports whether both season and episode are known.
func (q Query) HasEpisode() bool {
	return q.Episodic
}
