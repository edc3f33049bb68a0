package apihttp

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeRoute(t *testing.T) {
	cases := map[string]string{
		"/health":                         "/health",
		"/manifest.json":                  "/manifest.json",
		"/stream/movie/tt1.json":          "/stream/movie",
		"/stream/series/tt1%3A1%3A2.json": "/stream/series",
		"/stream/tv/x.json":               "/stream",
		"/search/stream":                  "/search/stream",
		"/indexers/health":                "/indexers/health",
		"/favicon.ico":                    "/other",
	}
	for path, want := range cases {
		if got := normalizeRoute(path); got != want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestPickRequestLogLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/stream/movie/x.json", 500, slog.LevelError},
		{"/stream/movie/x.json", 400, slog.LevelWarn},
		{"/health", 200, slog.LevelDebug},
		{"/manifest.json", 200, slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := pickRequestLogLevel(tt.path, tt.status); got != tt.want {
			t.Errorf("pickRequestLogLevel(%q, %d) = %v, want %v", tt.path, tt.status, got, tt.want)
		}
	}
}

func TestRequestIDKeepsIncomingValue(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(requestIDHeader)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get(requestIDHeader) != "abc-123" {
		t.Fatalf("expected incoming id to be kept, got %q / %q", seen, rec.Header().Get(requestIDHeader))
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(slog.Default(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}
	req.Header.Del("X-Forwarded-For")
	req.RemoteAddr = "192.0.2.7:4321"
	if got := clientIP(req); got != "192.0.2.7" {
		t.Fatalf("expected remote host, got %q", got)
	}
}

func TestRecoveryAfterResponseStarted(t *testing.T) {
	handler := recoveryMiddleware(slog.Default(), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event: bootstrap\n\n"))
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search/stream", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected started response to keep status 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "event: bootstrap\n\n" {
		t.Fatalf("expected no error body appended, got %q", body)
	}
}

func TestStreamTarget(t *testing.T) {
	tests := []struct {
		target string
		kind   string
		id     string
	}{
		{"/stream/series/tt0944947%3A1%3A2.json", "series", "tt0944947:1:2"},
		{"/stream/movie/tt0133093.json", "movie", "tt0133093"},
		{"/search/stream?type=movie&id=tt0133093", "movie", "tt0133093"},
		{"/manifest.json", "", ""},
	}
	for _, tt := range tests {
		kind, id := streamTarget(httptest.NewRequest(http.MethodGet, tt.target, nil))
		if kind != tt.kind || id != tt.id {
			t.Errorf("streamTarget(%q) = %q, %q, want %q, %q", tt.target, kind, id, tt.kind, tt.id)
		}
	}
}

func TestAccessLogCarriesStreamTarget(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := requestIDMiddleware(accessMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.(http.Flusher).Flush()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"streams":[]}`))
	})))

	req := httptest.NewRequest(http.MethodGet, "/stream/movie/tt0133093.json", nil)
	req.Header.Set(requestIDHeader, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"route":     "/stream/movie",
		"type":      "movie",
		"id":        "tt0133093",
		"requestId": "req-1",
		"status":    float64(200),
		"bytes":     float64(len(`{"streams":[]}`)),
		"events":    float64(1),
	}
	for key, value := range want {
		if entry[key] != value {
			t.Errorf("expected %s=%v, got %v", key, value, entry[key])
		}
	}
}
