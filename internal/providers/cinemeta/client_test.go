package cinemeta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"torrentstream/streamaddon/internal/domain"
)

func newCinemetaServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		switch r.URL.Path {
		case "/meta/movie/tt0133093.json":
			_, _ = w.Write([]byte(`{"meta":{"id":"tt0133093","name":"The Matrix","year":"1999","releaseInfo":"1999"}}`))
		case "/meta/series/tt0944947.json":
			_, _ = w.Write([]byte(`{"meta":{"id":"tt0944947","name":"Game of Thrones","releaseInfo":"2011-2019"}}`))
		case "/meta/movie/tt0000000.json":
			_, _ = w.Write([]byte(`{}`))
		case "/meta/movie/tt5000000.json":
			http.Error(w, "upstream down", http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLookup(t *testing.T) {
	server := newCinemetaServer(t, nil)
	client := NewClient(Config{BaseURL: server.URL + "/"})

	tests := []struct {
		name     string
		kind     domain.MediaKind
		id       string
		wantName string
		wantYear int
	}{
		{"movie year field", domain.MediaKindMovie, "tt0133093", "The Matrix", 1999},
		{"series release info", domain.MediaKindSeries, "tt0944947", "Game of Thrones", 2011},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := client.Lookup(context.Background(), tt.kind, tt.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if meta == nil || meta.Name != tt.wantName || meta.Year != tt.wantYear {
				t.Fatalf("expected %s (%d), got %+v", tt.wantName, tt.wantYear, meta)
			}
		})
	}
}

func TestLookupMisses(t *testing.T) {
	server := newCinemetaServer(t, nil)
	client := NewClient(Config{BaseURL: server.URL})

	for _, id := range []string{"tt0000000", "tt9999999", ""} {
		meta, err := client.Lookup(context.Background(), domain.MediaKindMovie, id)
		if err != nil || meta != nil {
			t.Fatalf("%q: expected miss, got %+v, %v", id, meta, err)
		}
	}

	if _, err := client.Lookup(context.Background(), domain.MediaKindMovie, "tt5000000"); err == nil {
		t.Fatalf("expected error for upstream failure")
	}
}

func TestLookupWorksWithUnreachableRedis(t *testing.T) {
	var hits atomic.Int32
	server := newCinemetaServer(t, &hits)
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	client := NewClient(Config{BaseURL: server.URL, Redis: rdb})
	for i := 0; i < 2; i++ {
		meta, err := client.Lookup(context.Background(), domain.MediaKindMovie, "tt0133093")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if meta == nil || meta.Name != "The Matrix" {
			t.Fatalf("unexpected meta: %+v", meta)
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("expected every lookup to reach the service, got %d", hits.Load())
	}
}

func TestParseYear(t *testing.T) {
	cases := map[string]int{
		"1999":      1999,
		"2011-2019": 2011,
		"2011–":     2011,
		"":          0,
		"199":       0,
		"n/a!":      0,
	}
	for raw, want := range cases {
		if got := parseYear(raw); got != want {
			t.Errorf("parseYear(%q) = %d, want %d", raw, got, want)
		}
	}
}
