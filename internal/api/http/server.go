package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"torrentstream/streamaddon/internal/domain"
)

type StreamService interface {
	Streams(ctx context.Context, kind domain.MediaKind, id string) (domain.StreamResponse, error)
	Records(ctx context.Context, kind domain.MediaKind, id string, onPartial func([]domain.Record)) ([]domain.Record, error)
}

// DiagnosticsSource reports per-indexer request outcomes.
type DiagnosticsSource interface {
	Diagnostics() []domain.IndexerDiagnostics
}

// Manifest describes the add-on to clients.
type Manifest struct {
	ID          string   `json:"id"`
	Version     string   `json:"version"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon,omitempty"`
	Resources   []string `json:"resources"`
	Types       []string `json:"types"`
	IDPrefixes  []string `json:"idPrefixes"`
	Catalogs    []any    `json:"catalogs"`
}

func DefaultManifest(id, name string) Manifest {
	if strings.TrimSpace(id) == "" {
		id = "org.stremio.jackett"
	}
	if strings.TrimSpace(name) == "" {
		name = "Jackett"
	}
	return Manifest{
		ID:          id,
		Version:     "1.0.0",
		Name:        name,
		Description: "Torrent streams from the indexers configured on a Jackett instance",
		Resources:   []string{"stream"},
		Types:       []string{string(domain.MediaKindMovie), string(domain.MediaKindSeries)},
		IDPrefixes:  []string{"tt"},
		Catalogs:    []any{},
	}
}

type Server struct {
	streams     StreamService
	diagnostics DiagnosticsSource
	manifest    Manifest
	logger      *slog.Logger
	rateLimit   float64
	rateBurst   int
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithManifest(manifest Manifest) ServerOption {
	return func(s *Server) {
		s.manifest = manifest
	}
}

func WithDiagnostics(source DiagnosticsSource) ServerOption {
	return func(s *Server) {
		s.diagnostics = source
	}
}

func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		s.rateLimit = rps
		s.rateBurst = burst
	}
}

func NewServer(streams StreamService, options ...ServerOption) *Server {
	server := &Server{
		streams:   streams,
		manifest:  DefaultManifest("", ""),
		logger:    slog.Default(),
		rateLimit: 50,
		rateBurst: 100,
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Get("/health", s.handleHealth)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/manifest.json", s.handleManifest)
	router.Get("/stream/{type}/{id}", s.handleStream)
	router.Get("/search/stream", s.handleSearchStream)
	router.Get("/indexers/health", s.handleIndexersHealth)

	traced := otelhttp.NewHandler(router, "stream-addon",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	limited := rateLimitMiddleware(s.rateLimit, s.rateBurst, traced)
	return recoveryMiddleware(s.logger, requestIDMiddleware(accessMiddleware(s.logger, corsMiddleware(limited))))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleIndexersHealth(w http.ResponseWriter, _ *http.Request) {
	items := []domain.IndexerDiagnostics{}
	if s.diagnostics != nil {
		if snapshot := s.diagnostics.Diagnostics(); snapshot != nil {
			items = snapshot
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleManifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manifest)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.streams == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "stream service is not configured")
		return
	}
	kind, supported := parseMediaKind(chi.URLParam(r, "type"))
	id := parseStreamIDParam(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", domain.ErrMissingID.Error())
		return
	}
	if !supported {
		writeJSON(w, http.StatusOK, domain.EmptyStreamResponse())
		return
	}

	response, err := s.streams.Streams(r.Context(), kind, id)
	if err != nil {
		if errors.Is(err, domain.ErrMissingID) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		s.logger.Error("stream request failed", slog.String("id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "stream lookup failed")
		return
	}
	if response.Streams == nil {
		response.Streams = []domain.Stream{}
	}
	writeJSON(w, http.StatusOK, response)
}

// handleSearchStream exposes the search phase as server-sent events: one
// "partial" event per indexer batch, then "done" with the ranked records.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	if s.streams == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "stream service is not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming is not supported")
		return
	}

	kind, supported := parseMediaKind(r.URL.Query().Get("type"))
	if !supported {
		writeError(w, http.StatusBadRequest, "invalid_request", "type must be movie or series")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", domain.ErrMissingID.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	if err := writeSSEEvent(w, flusher, "bootstrap", map[string]any{"type": kind, "id": id}); err != nil {
		return // Client disconnected
	}

	var writeErr error
	records, err := s.streams.Records(r.Context(), kind, id, func(batch []domain.Record) {
		if writeErr != nil {
			return
		}
		if batch == nil {
			batch = []domain.Record{}
		}
		writeErr = writeSSEEvent(w, flusher, "partial", map[string]any{"records": batch})
	})
	if err != nil {
		_ = writeSSEEvent(w, flusher, "error", map[string]any{"message": err.Error()})
		return
	}
	if writeErr != nil {
		return // Client disconnected
	}
	_ = writeSSEEvent(w, flusher, "done", map[string]any{"final": true, "records": records})
}

func parseMediaKind(raw string) (domain.MediaKind, bool) {
	kind := domain.MediaKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case domain.MediaKindMovie, domain.MediaKindSeries:
		return kind, true
	default:
		return kind, false
	}
}

// parseStreamIDParam strips the ".json" suffix and undoes percent encoding
// of ids such as "tt0944947%3A1%3A2".
func parseStreamIDParam(raw string) string {
	raw = strings.TrimSuffix(raw, ".json")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return strings.TrimSpace(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
