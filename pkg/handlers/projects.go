package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/services"
)

// ProjectsHandler handles project and assignment endpoints.
type ProjectsHandler struct {
	projectService services.ProjectService
	logger         *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(projectService services.ProjectService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, authed, admin RouteWrapper) {
	mux.HandleFunc("GET /api/projects", authed(h.List))
	mux.HandleFunc("POST /api/projects", admin(h.Create))
	mux.HandleFunc("GET /api/projects/{pid}", authed(h.Get))
	mux.HandleFunc("PATCH /api/projects/{pid}", admin(h.Update))
	mux.HandleFunc("DELETE /api/projects/{pid}", admin(h.Delete))

	mux.HandleFunc("GET /api/projects/{pid}/assignments", authed(h.ListAssignments))
	mux.HandleFunc("POST /api/projects/{pid}/assignments", admin(h.Assign))
	mux.HandleFunc("DELETE /api/projects/{pid}/assignments/{aid}", admin(h.RemoveAssignment))
}

// authorizeProject parses the project ID and checks that the caller may see
// the project. On failure the error response has already been written.
func authorizeProject(w http.ResponseWriter, r *http.Request, projects services.ProjectService, logger *zap.Logger) (uuid.UUID, bool) {
	projectID, ok := ParseProjectID(w, r, logger)
	if !ok {
		return uuid.Nil, false
	}
	if _, err := projects.Get(r.Context(), projectID); err != nil {
		writeServiceError(w, logger, err, "load project")
		return uuid.Nil, false
	}
	return projectID, true
}

// List handles GET /api/projects
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list projects")
		return
	}
	writeData(w, h.logger, http.StatusOK, projects)
}

// Create handles POST /api/projects
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateProjectRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	project, err := h.projectService.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create project")
		return
	}
	writeData(w, h.logger, http.StatusCreated, project)
}

// Get handles GET /api/projects/{pid}
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get project")
		return
	}
	writeData(w, h.logger, http.StatusOK, project)
}

// Update handles PATCH /api/projects/{pid}
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	project, err := h.projectService.Update(r.Context(), projectID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update project")
		return
	}
	writeData(w, h.logger, http.StatusOK, project)
}

// Delete handles DELETE /api/projects/{pid}
// The project's responses and tensions are kept.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), projectID); err != nil {
		writeServiceError(w, h.logger, err, "delete project")
		return
	}

	h.logger.Info("Project deleted", zap.String("project_id", projectID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// ListAssignments handles GET /api/projects/{pid}/assignments
func (h *ProjectsHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	projectID, ok := authorizeProject(w, r, h.projectService, h.logger)
	if !ok {
		return
	}

	assignments, err := h.projectService.ListAssignments(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list assignments")
		return
	}
	writeData(w, h.logger, http.StatusOK, assignments)
}

// Assign handles POST /api/projects/{pid}/assignments
func (h *ProjectsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.AssignRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	assignment, err := h.projectService.Assign(r.Context(), projectID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "assign expert")
		return
	}
	writeData(w, h.logger, http.StatusCreated, assignment)
}

// RemoveAssignment handles DELETE /api/projects/{pid}/assignments/{aid}
func (h *ProjectsHandler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}
	assignmentID, ok := ParseAssignmentID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.projectService.RemoveAssignment(r.Context(), projectID, assignmentID); err != nil {
		writeServiceError(w, h.logger, err, "remove assignment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
