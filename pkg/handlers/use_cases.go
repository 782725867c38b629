package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/services"
)

// UpdateStatusRequest is the body of status transitions.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AssignExpertsRequest is the body of POST /api/use-cases/{ucid}/experts.
type AssignExpertsRequest struct {
	UserIDs []uuid.UUID `json:"userIds"`
}

// UseCasesHandler handles use case endpoints.
type UseCasesHandler struct {
	useCaseService services.UseCaseService
	logger         *zap.Logger
}

// NewUseCasesHandler creates a new use cases handler.
func NewUseCasesHandler(useCaseService services.UseCaseService, logger *zap.Logger) *UseCasesHandler {
	return &UseCasesHandler{
		useCaseService: useCaseService,
		logger:         logger,
	}
}

// RegisterRoutes registers the use case routes on the given mux.
func (h *UseCasesHandler) RegisterRoutes(mux *http.ServeMux, authed, admin RouteWrapper) {
	mux.HandleFunc("GET /api/use-cases", authed(h.List))
	mux.HandleFunc("POST /api/use-cases", authed(h.Create))
	mux.HandleFunc("GET /api/use-cases/{ucid}", authed(h.Get))
	mux.HandleFunc("GET /api/use-cases/{ucid}/assigned-experts", authed(h.AssignedExperts))
	mux.HandleFunc("POST /api/use-cases/{ucid}/attachments", authed(h.AddAttachment))
	mux.HandleFunc("PUT /api/use-cases/{ucid}/status", admin(h.UpdateStatus))
	mux.HandleFunc("POST /api/use-cases/{ucid}/experts", admin(h.AssignExperts))
	mux.HandleFunc("DELETE /api/use-cases/{ucid}", admin(h.Delete))
}

// List handles GET /api/use-cases?status=
func (h *UseCasesHandler) List(w http.ResponseWriter, r *http.Request) {
	useCases, err := h.useCaseService.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, h.logger, err, "list use cases")
		return
	}
	writeData(w, h.logger, http.StatusOK, useCases)
}

// Create handles POST /api/use-cases
func (h *UseCasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUseCaseRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	useCase, err := h.useCaseService.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create use case")
		return
	}
	writeData(w, h.logger, http.StatusCreated, useCase)
}

// Get handles GET /api/use-cases/{ucid}
func (h *UseCasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	useCaseID, ok := ParseUseCaseID(w, r, h.logger)
	if !ok {
		return
	}

	useCase, err := h.useCaseService.Get(r.Context(), useCaseID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get use case")
		return
	}
	writeData(w, h.logger, http.StatusOK, useCase)
}

// AssignedExperts handles GET /api/use-cases/{ucid}/assigned-experts.
// The path value is passed through unparsed; an unrecognized ID yields the
// empty result rather than an error.
func (h *UseCasesHandler) AssignedExperts(w http.ResponseWriter, r *http.Request) {
	experts, err := h.useCaseService.AssignedExperts(r.Context(), r.PathValue("ucid"))
	if err != nil {
		writeServiceError(w, h.logger, err, "get assigned experts")
		return
	}
	writeData(w, h.logger, http.StatusOK, experts)
}

// AddAttachment handles POST /api/use-cases/{ucid}/attachments
func (h *UseCasesHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	useCaseID, ok := ParseUseCaseID(w, r, h.logger)
	if !ok {
		return
	}

	var attachment models.Attachment
	if !decodeJSON(w, r, &attachment, h.logger) {
		return
	}

	if err := h.useCaseService.AddAttachment(r.Context(), useCaseID, attachment); err != nil {
		writeServiceError(w, h.logger, err, "add attachment")
		return
	}
	writeData(w, h.logger, http.StatusCreated, attachment)
}

// UpdateStatus handles PUT /api/use-cases/{ucid}/status
func (h *UseCasesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	useCaseID, ok := ParseUseCaseID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	if err := h.useCaseService.UpdateStatus(r.Context(), useCaseID, req.Status); err != nil {
		writeServiceError(w, h.logger, err, "update use case status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignExperts handles POST /api/use-cases/{ucid}/experts
func (h *UseCasesHandler) AssignExperts(w http.ResponseWriter, r *http.Request) {
	useCaseID, ok := ParseUseCaseID(w, r, h.logger)
	if !ok {
		return
	}

	var req AssignExpertsRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	useCase, err := h.useCaseService.AssignExperts(r.Context(), useCaseID, req.UserIDs)
	if err != nil {
		writeServiceError(w, h.logger, err, "assign experts")
		return
	}
	writeData(w, h.logger, http.StatusOK, useCase)
}

// Delete handles DELETE /api/use-cases/{ucid}
func (h *UseCasesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	useCaseID, ok := ParseUseCaseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.useCaseService.Delete(r.Context(), useCaseID); err != nil {
		writeServiceError(w, h.logger, err, "delete use case")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
