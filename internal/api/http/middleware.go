package apihttp

import (
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"torrentstream/streamaddon/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// statusRecorder remembers what a handler sent. flushes counts SSE events
// pushed to the client.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	flushes     int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.wroteHeader {
		rec.status = code
		rec.wroteHeader = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	rec.wroteHeader = true
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

func (rec *statusRecorder) Flush() {
	if flusher, ok := rec.ResponseWriter.(http.Flusher); ok {
		rec.flushes++
		flusher.Flush()
	}
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// streamTarget extracts the media type and title id a request is about, from
// /stream/{type}/{id}.json or the /search/stream query.
func streamTarget(r *http.Request) (string, string) {
	if rest, ok := strings.CutPrefix(r.URL.Path, "/stream/"); ok {
		kind, id, _ := strings.Cut(rest, "/")
		return kind, parseStreamIDParam(id)
	}
	if r.URL.Path == "/search/stream" {
		query := r.URL.Query()
		return query.Get("type"), strings.TrimSpace(query.Get("id"))
	}
	return "", ""
}

// accessMiddleware records the request metrics and writes one access log
// line per request, tagged with the requested title when there is one.
func accessMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)
		elapsed := time.Since(startedAt)

		route := normalizeRoute(r.URL.Path)
		if r.URL.Path != "/metrics" {
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		}

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", rec.status),
			slog.Int("bytes", rec.bytes),
			slog.Int64("elapsedMs", elapsed.Milliseconds()),
			slog.String("requestId", r.Header.Get(requestIDHeader)),
			slog.String("clientIP", clientIP(r)),
		}
		if kind, id := streamTarget(r); id != "" {
			attrs = append(attrs, slog.String("type", kind), slog.String("id", truncate(id, 64)))
		}
		if rec.flushes > 0 {
			attrs = append(attrs, slog.Int("events", rec.flushes))
		}
		if userAgent := strings.TrimSpace(r.UserAgent()); userAgent != "" {
			attrs = append(attrs, slog.String("userAgent", truncate(userAgent, 120)))
		}
		logger.LogAttrs(r.Context(), pickRequestLogLevel(r.URL.Path, rec.status), "http request", attrs...)
	})
}

// recoveryMiddleware turns a handler panic into a 500, unless the response
// was already started, in which case the connection is only logged about.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := newStatusRecorder(w)
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			kind, id := streamTarget(r)
			logger.Error("handler panic",
				slog.Any("panic", recovered),
				slog.String("route", normalizeRoute(r.URL.Path)),
				slog.String("type", kind),
				slog.String("id", id),
				slog.String("requestId", r.Header.Get(requestIDHeader)),
				slog.Bool("responseStarted", rec.wroteHeader),
				slog.String("stack", string(debug.Stack())),
			)
			if !rec.wroteHeader {
				writeError(rec, http.StatusInternalServerError, "internal_error", "internal server error")
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

// requestIDMiddleware keeps an incoming X-Request-ID or assigns a new one,
// and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
			r.Header.Set(requestIDHeader, requestID)
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware opens every route to any origin; add-on clients fetch the
// manifest and streams cross-origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Headers", "*")
		header.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func normalizeRoute(path string) string {
	switch {
	case path == "/health" || path == "/metrics" || path == "/manifest.json" ||
		path == "/search/stream" || path == "/indexers/health":
		return path
	case strings.HasPrefix(path, "/stream/movie/"):
		return "/stream/movie"
	case strings.HasPrefix(path, "/stream/series/"):
		return "/stream/series"
	case strings.HasPrefix(path, "/stream/"):
		return "/stream"
	default:
		return "/other"
	}
}

// pickRequestLogLevel keeps probes and scrapes out of the info log.
func pickRequestLogLevel(path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case path == "/health" || path == "/metrics" || path == "/indexers/health":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func clientIP(r *http.Request) string {
	if forwarded, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(forwarded) != "" {
		return strings.TrimSpace(forwarded)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "…"
}

// rateLimitMiddleware shares one token bucket between the add-on routes.
// Health and metrics are exempt. A non-positive rps disables limiting.
func rateLimitMiddleware(rps float64, burst int, next http.Handler) http.Handler {
	if rps <= 0 {
		return next
	}
	limiter := rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health", "/metrics":
		default:
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
