// Package middleware contains HTTP middleware shared by every route.
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/metrics"
)

// RequestLogger returns middleware that logs HTTP requests at DEBUG level and,
// when m is non-nil, records request count and latency per route.
// Pass a nil logger to disable logging.
func RequestLogger(logger *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil && m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			elapsed := time.Since(start)

			// ServeMux sets r.Pattern on the shared request once it has matched a route.
			m.ObserveHTTPRequest(r.Method, r.Pattern, wrapped.statusCode, elapsed)

			if logger != nil {
				logger.Debug("HTTP request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("route", r.Pattern),
					zap.Int("status", wrapped.statusCode),
					zap.Duration("duration", elapsed),
					zap.String("remote_addr", r.RemoteAddr),
				)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
