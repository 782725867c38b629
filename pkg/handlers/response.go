package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/auth"
)

// ApiResponse is the envelope of every successful JSON response.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// RouteWrapper wraps a handler with authentication and a database scope.
type RouteWrapper func(http.HandlerFunc) http.HandlerFunc

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

func writeData(w http.ResponseWriter, logger *zap.Logger, statusCode int, data any) {
	if err := WriteJSON(w, statusCode, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

// decodeJSON reads the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service errors to HTTP responses. Unrecognized
// errors are logged and reported as 500 with a generic message.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidRole),
		errors.Is(err, apperrors.ErrInvalidPrinciple):
		writeError(w, logger, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, apperrors.ErrNotAssigned):
		writeError(w, logger, http.StatusForbidden, "not_assigned", err.Error())
	case errors.Is(err, apperrors.ErrForbidden):
		writeError(w, logger, http.StatusForbidden, "forbidden", "You do not have access to this resource")
	case errors.Is(err, apperrors.ErrConflict):
		writeError(w, logger, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperrors.ErrLLMUnavailable):
		writeError(w, logger, http.StatusServiceUnavailable, "llm_unavailable", err.Error())
	case errors.Is(err, auth.ErrMissingSubject):
		writeError(w, logger, http.StatusUnauthorized, "unauthorized", "Authentication required")
	default:
		logger.Error("Request failed", zap.String("action", action), zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, "internal_error", "Failed to "+action)
	}
}
