// ABOUTME: Request counting middleware feeding the Prometheus HTTP counter
// ABOUTME: Labels by route pattern rather than raw path to bound cardinality

package middleware

import (
	"log/slog"
	"net/http"
)

// RequestRecorder records one served request
type RequestRecorder interface {
	EmitRequest(route, method string, code int) error
}

// Instrument returns middleware that reports each request under route.
// A nil recorder disables it.
func Instrument(recorder RequestRecorder, route string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if recorder == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			wrapped, ok := w.(*responseWriter)
			if !ok {
				wrapped = &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			}

			next(wrapped, r)

			if err := recorder.EmitRequest(route, r.Method, wrapped.statusCode); err != nil {
				slog.Debug("Failed to record request metric", "route", route, "error", err)
			}
		}
	}
}
