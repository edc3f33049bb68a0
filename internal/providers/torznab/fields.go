package torznab

import (
	"strconv"
	"strings"
	"time"

	"torrentstream/streamaddon/internal/domain"
)

// field maps one key of an item's working attribute map onto a Record.
// assign reports false when the raw value could not be coerced; the field is
// then left unset.
type field struct {
	key      string
	required bool
	assign   func(record *domain.Record, raw string) bool
}

var recordFields = []field{
	{key: "title", required: true, assign: stringField(func(r *domain.Record) *string { return &r.Title })},
	{key: "link", assign: stringField(func(r *domain.Record) *string { return &r.Link })},
	{key: "magneturl", assign: stringField(func(r *domain.Record) *string { return &r.Magnet })},
	{key: "seeders", assign: intField(func(r *domain.Record) **int { return &r.Seeders })},
	{key: "peers", assign: intField(func(r *domain.Record) **int { return &r.Peers })},
	{key: "size", assign: int64Field(func(r *domain.Record) **int64 { return &r.Size })},
	{key: "files", assign: intField(func(r *domain.Record) **int { return &r.Files })},
	{key: "pubDate", assign: timeField(func(r *domain.Record) **time.Time { return &r.PublishedAt })},
}

// RSS feeds from Torznab indexers use a handful of date layouts.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func stringField(target func(*domain.Record) *string) func(*domain.Record, string) bool {
	return func(record *domain.Record, raw string) bool {
		value := strings.TrimSpace(raw)
		if value == "" {
			return false
		}
		*target(record) = value
		return true
	}
}

func intField(target func(*domain.Record) **int) func(*domain.Record, string) bool {
	return func(record *domain.Record, raw string) bool {
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return false
		}
		*target(record) = &value
		return true
	}
}

func int64Field(target func(*domain.Record) **int64) func(*domain.Record, string) bool {
	return func(record *domain.Record, raw string) bool {
		value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return false
		}
		*target(record) = &value
		return true
	}
}

func timeField(target func(*domain.Record) **time.Time) func(*domain.Record, string) bool {
	return func(record *domain.Record, raw string) bool {
		published := parsePubDate(raw)
		if published == nil {
			return false
		}
		*target(record) = published
		return true
	}
}

func parsePubDate(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	for _, layout := range pubDateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}
