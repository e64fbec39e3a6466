package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// probePaths are hit by orchestrators every few seconds.
var probePaths = map[string]bool{"/healthz": true, "/readyz": true}

// Logger logs every request once it completes. The level follows the
// status: error for 5xx, warn for 4xx, info otherwise. Successful probe
// requests drop to debug. Query strings are never logged since they can
// carry image URLs and filters of no diagnostic value.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
				"bytes", rec.bytes,
				"request_id", GetRequestID(r.Context()),
				"client_ip", ClientIP(r),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" && pattern != r.URL.Path {
					attrs = append(attrs, "route", pattern)
				}
			}
			if strings.HasPrefix(r.URL.Path, "/api/admin/") {
				attrs = append(attrs, "admin", true)
			}

			logger.Log(r.Context(), requestLevel(r.URL.Path, rec.status), "request", attrs...)
		})
	}
}

func requestLevel(path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case probePaths[path]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap exposes the wrapped writer to http.ResponseController, which the
// MCP streaming transport uses to flush.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
