package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/services"
)

// VoteRequest is the body of POST /api/tensions/{tid}/votes.
type VoteRequest struct {
	Vote string `json:"vote"`
}

// CommentRequest is the body of POST /api/tensions/{tid}/comments.
type CommentRequest struct {
	Text string `json:"text"`
}

// TensionsHandler handles ethical tension endpoints.
type TensionsHandler struct {
	tensionService services.TensionService
	projectService services.ProjectService
	logger         *zap.Logger
}

// NewTensionsHandler creates a new tensions handler.
func NewTensionsHandler(tensionService services.TensionService, projectService services.ProjectService, logger *zap.Logger) *TensionsHandler {
	return &TensionsHandler{
		tensionService: tensionService,
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers the tension routes on the given mux.
func (h *TensionsHandler) RegisterRoutes(mux *http.ServeMux, authed, admin RouteWrapper) {
	mux.HandleFunc("GET /api/projects/{pid}/tensions", authed(h.List))
	mux.HandleFunc("POST /api/projects/{pid}/tensions", authed(h.Create))
	mux.HandleFunc("GET /api/tensions/{tid}", authed(h.Get))
	mux.HandleFunc("DELETE /api/tensions/{tid}", authed(h.Delete))
	mux.HandleFunc("POST /api/tensions/{tid}/votes", authed(h.Vote))
	mux.HandleFunc("POST /api/tensions/{tid}/comments", authed(h.AddComment))
	mux.HandleFunc("POST /api/tensions/{tid}/evidence", authed(h.AddEvidence))
	mux.HandleFunc("PUT /api/tensions/{tid}/status", admin(h.UpdateStatus))
}

// authorizeTension loads the tension named by {tid} and checks the caller may
// read its project. On failure the error response has been written.
func (h *TensionsHandler) authorizeTension(w http.ResponseWriter, r *http.Request) (*models.Tension, bool) {
	tensionID, ok := ParseTensionID(w, r, h.logger)
	if !ok {
		return nil, false
	}

	tension, err := h.tensionService.Get(r.Context(), tensionID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get tension")
		return nil, false
	}
	if _, err := h.projectService.Get(r.Context(), tension.ProjectID); err != nil {
		writeServiceError(w, h.logger, err, "load project")
		return nil, false
	}
	return tension, true
}

// List handles GET /api/projects/{pid}/tensions
func (h *TensionsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := authorizeProject(w, r, h.projectService, h.logger)
	if !ok {
		return
	}

	tensions, err := h.tensionService.ListByProject(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list tensions")
		return
	}
	writeData(w, h.logger, http.StatusOK, tensions)
}

// Create handles POST /api/projects/{pid}/tensions
func (h *TensionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := authorizeProject(w, r, h.projectService, h.logger)
	if !ok {
		return
	}

	var req services.CreateTensionRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	tension, err := h.tensionService.Create(r.Context(), projectID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create tension")
		return
	}
	writeData(w, h.logger, http.StatusCreated, tension)
}

// Get handles GET /api/tensions/{tid}
func (h *TensionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tension, ok := h.authorizeTension(w, r)
	if !ok {
		return
	}
	writeData(w, h.logger, http.StatusOK, tension)
}

// Delete handles DELETE /api/tensions/{tid}
func (h *TensionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tension, ok := h.authorizeTension(w, r)
	if !ok {
		return
	}

	if err := h.tensionService.Delete(r.Context(), tension.ID); err != nil {
		writeServiceError(w, h.logger, err, "delete tension")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Vote handles POST /api/tensions/{tid}/votes
func (h *TensionsHandler) Vote(w http.ResponseWriter, r *http.Request) {
	tension, ok := h.authorizeTension(w, r)
	if !ok {
		return
	}

	var req VoteRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	updated, err := h.tensionService.Vote(r.Context(), tension.ID, req.Vote)
	if err != nil {
		writeServiceError(w, h.logger, err, "record vote")
		return
	}
	writeData(w, h.logger, http.StatusOK, updated)
}

// AddComment handles POST /api/tensions/{tid}/comments
func (h *TensionsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	tension, ok := h.authorizeTension(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	comment, err := h.tensionService.AddComment(r.Context(), tension.ID, req.Text)
	if err != nil {
		writeServiceError(w, h.logger, err, "add comment")
		return
	}
	writeData(w, h.logger, http.StatusCreated, comment)
}

// AddEvidence handles POST /api/tensions/{tid}/evidence
func (h *TensionsHandler) AddEvidence(w http.ResponseWriter, r *http.Request) {
	tension, ok := h.authorizeTension(w, r)
	if !ok {
		return
	}

	var req services.EvidenceRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	evidence, err := h.tensionService.AddEvidence(r.Context(), tension.ID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "add evidence")
		return
	}
	writeData(w, h.logger, http.StatusCreated, evidence)
}

// UpdateStatus handles PUT /api/tensions/{tid}/status
func (h *TensionsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tensionID, ok := ParseTensionID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	if err := h.tensionService.UpdateStatus(r.Context(), tensionID, req.Status); err != nil {
		writeServiceError(w, h.logger, err, "update tension status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
