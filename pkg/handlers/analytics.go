package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/services"
)

// AnalyticsHandler serves the score read models of a project.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
	projectService   services.ProjectService
	logger           *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler. projectService is used
// to check that the caller may see the project.
func NewAnalyticsHandler(analyticsService services.AnalyticsService, projectService services.ProjectService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		projectService:   projectService,
		logger:           logger,
	}
}

// RegisterRoutes registers the analytics routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, authed RouteWrapper) {
	base := "/api/projects/{pid}/analytics/"
	mux.HandleFunc("GET "+base+services.ViewPrinciples, authed(h.Principles))
	mux.HandleFunc("GET "+base+services.ViewRoles, authed(h.Roles))
	mux.HandleFunc("GET "+base+services.ViewHotspots, authed(h.Hotspots))
	mux.HandleFunc("GET "+base+services.ViewCompletion, authed(h.Completion))
}

func (h *AnalyticsHandler) authorize(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return authorizeProject(w, r, h.projectService, h.logger)
}

// Principles handles GET /api/projects/{pid}/analytics/principles?questionnaire=
func (h *AnalyticsHandler) Principles(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	scores, err := h.analyticsService.PrincipleScores(r.Context(), projectID, r.URL.Query().Get("questionnaire"))
	if err != nil {
		writeServiceError(w, h.logger, err, "compute principle scores")
		return
	}
	writeData(w, h.logger, http.StatusOK, scores)
}

// Roles handles GET /api/projects/{pid}/analytics/roles?questionnaire=
func (h *AnalyticsHandler) Roles(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	scores, err := h.analyticsService.RoleScores(r.Context(), projectID, r.URL.Query().Get("questionnaire"))
	if err != nil {
		writeServiceError(w, h.logger, err, "compute role scores")
		return
	}
	writeData(w, h.logger, http.StatusOK, scores)
}

// Hotspots handles GET /api/projects/{pid}/analytics/hotspots?questionnaire=&threshold=
func (h *AnalyticsHandler) Hotspots(w http.ResponseWriter, r *http.Request) {
	threshold, ok := parseQueryFloat(w, r, "threshold", h.logger)
	if !ok {
		return
	}
	projectID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	hotspots, err := h.analyticsService.Hotspots(r.Context(), projectID, r.URL.Query().Get("questionnaire"), threshold)
	if err != nil {
		writeServiceError(w, h.logger, err, "detect hotspots")
		return
	}
	writeData(w, h.logger, http.StatusOK, hotspots)
}

// Completion handles GET /api/projects/{pid}/analytics/completion
func (h *AnalyticsHandler) Completion(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	completion, err := h.analyticsService.Completion(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "compute completion")
		return
	}
	writeData(w, h.logger, http.StatusOK, completion)
}
