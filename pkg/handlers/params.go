package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseProjectID extracts and validates the project ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: pid
func ParseProjectID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "pid", "invalid_project_id", "Invalid project ID format", logger)
}

// ParseUseCaseID expects path parameter: ucid
func ParseUseCaseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "ucid", "invalid_use_case_id", "Invalid use case ID format", logger)
}

// ParseUserID expects path parameter: uid
func ParseUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "uid", "invalid_user_id", "Invalid user ID format", logger)
}

// ParseAssignmentID expects path parameter: aid
func ParseAssignmentID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "aid", "invalid_assignment_id", "Invalid assignment ID format", logger)
}

// ParseTensionID expects path parameter: tid
func ParseTensionID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "tid", "invalid_tension_id", "Invalid tension ID format", logger)
}

// ParseReportID expects path parameter: rid
func ParseReportID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "rid", "invalid_report_id", "Invalid report ID format", logger)
}

// ParseProjectAndUserIDs extracts and validates both project and user IDs.
// Expects path parameters: pid, uid
func ParseProjectAndUserIDs(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, uuid.UUID, bool) {
	projectID, ok := ParseProjectID(w, r, logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	userID, ok := ParseUserID(w, r, logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	return projectID, userID, true
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// parseQueryFloat reads an optional float query parameter. A missing
// parameter yields nil.
func parseQueryFloat(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (*float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_parameter", "Invalid "+name+" parameter")
		return nil, false
	}
	return &v, true
}

// parseQueryInt reads an optional integer query parameter, returning 0 when absent.
func parseQueryInt(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_parameter", "Invalid "+name+" parameter")
		return 0, false
	}
	return v, true
}
