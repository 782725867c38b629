package database

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// acquireTimeout bounds how long a request waits for a free connection.
const acquireTimeout = 5 * time.Second

// WithScope is HTTP middleware that holds one pooled connection for the
// lifetime of the request and exposes it through GetScope.
// Pool exhaustion answers 503 so clients can retry; other failures answer 500.
func WithScope(a Acquirer, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			acquireCtx, cancel := context.WithTimeout(r.Context(), acquireTimeout)
			scope, err := a.Acquire(acquireCtx)
			cancel()
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) && r.Context().Err() == nil {
					logger.Warn("Timed out waiting for a database connection",
						zap.String("path", r.URL.Path))
					w.Header().Set("Retry-After", "1")
					writeError(w, http.StatusServiceUnavailable, "database_busy", "Database is busy, retry shortly")
					return
				}
				logger.Error("Failed to acquire database connection",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				writeError(w, http.StatusInternalServerError, "database_error", "Database connection error")
				return
			}
			defer scope.Close()

			next(w, r.WithContext(SetScope(r.Context(), scope)))
		}
	}
}

func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
