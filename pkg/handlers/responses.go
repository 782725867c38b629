package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/services"
)

// ResponsesHandler handles questionnaire response endpoints.
type ResponsesHandler struct {
	responseService services.ResponseService
	logger          *zap.Logger
}

// NewResponsesHandler creates a new responses handler.
func NewResponsesHandler(responseService services.ResponseService, logger *zap.Logger) *ResponsesHandler {
	return &ResponsesHandler{
		responseService: responseService,
		logger:          logger,
	}
}

// RegisterRoutes registers the response routes on the given mux.
func (h *ResponsesHandler) RegisterRoutes(mux *http.ServeMux, authed, admin RouteWrapper) {
	mux.HandleFunc("PUT /api/projects/{pid}/responses", authed(h.Save))
	mux.HandleFunc("GET /api/projects/{pid}/responses/mine", authed(h.GetMine))
	mux.HandleFunc("GET /api/projects/{pid}/responses", admin(h.List))
}

// Save handles PUT /api/projects/{pid}/responses.
// Saves a draft or submits the caller's response for one questionnaire.
func (h *ResponsesHandler) Save(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.SaveResponseRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	response, err := h.responseService.Save(r.Context(), projectID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "save response")
		return
	}
	writeData(w, h.logger, http.StatusOK, response)
}

// GetMine handles GET /api/projects/{pid}/responses/mine?questionnaire=
func (h *ResponsesHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	key := r.URL.Query().Get("questionnaire")
	if key == "" {
		writeError(w, h.logger, http.StatusBadRequest, "missing_questionnaire", "questionnaire query parameter is required")
		return
	}

	response, err := h.responseService.GetMine(r.Context(), projectID, key)
	if err != nil {
		writeServiceError(w, h.logger, err, "get response")
		return
	}
	writeData(w, h.logger, http.StatusOK, response)
}

// List handles GET /api/projects/{pid}/responses?status=
func (h *ResponsesHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	responses, err := h.responseService.ListByProject(r.Context(), projectID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, h.logger, err, "list responses")
		return
	}
	writeData(w, h.logger, http.StatusOK, responses)
}
