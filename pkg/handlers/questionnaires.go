package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/services"
)

// QuestionnairesHandler serves questionnaire definitions.
type QuestionnairesHandler struct {
	questionnaireService services.QuestionnaireService
	logger               *zap.Logger
}

// NewQuestionnairesHandler creates a new questionnaires handler.
func NewQuestionnairesHandler(questionnaireService services.QuestionnaireService, logger *zap.Logger) *QuestionnairesHandler {
	return &QuestionnairesHandler{
		questionnaireService: questionnaireService,
		logger:               logger,
	}
}

// RegisterRoutes registers the questionnaire routes on the given mux.
func (h *QuestionnairesHandler) RegisterRoutes(mux *http.ServeMux, authed, admin RouteWrapper) {
	mux.HandleFunc("GET /api/questionnaires", authed(h.List))
	mux.HandleFunc("POST /api/questionnaires", admin(h.Create))
	mux.HandleFunc("GET /api/questionnaires/{key}", authed(h.Get))
	mux.HandleFunc("GET /api/questionnaires/{key}/questions", authed(h.Questions))
	mux.HandleFunc("PUT /api/questionnaires/{key}/questions", admin(h.UpsertQuestion))
}

// List handles GET /api/questionnaires
func (h *QuestionnairesHandler) List(w http.ResponseWriter, r *http.Request) {
	questionnaires, err := h.questionnaireService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list questionnaires")
		return
	}
	writeData(w, h.logger, http.StatusOK, questionnaires)
}

// Create handles POST /api/questionnaires
func (h *QuestionnairesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.QuestionnaireRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	q, err := h.questionnaireService.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create questionnaire")
		return
	}
	writeData(w, h.logger, http.StatusCreated, q)
}

// Get handles GET /api/questionnaires/{key}
func (h *QuestionnairesHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.questionnaireService.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, h.logger, err, "get questionnaire")
		return
	}
	writeData(w, h.logger, http.StatusOK, q)
}

// Questions handles GET /api/questionnaires/{key}/questions
func (h *QuestionnairesHandler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questionnaireService.Questions(r.Context(), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, h.logger, err, "list questions")
		return
	}
	writeData(w, h.logger, http.StatusOK, questions)
}

// UpsertQuestion handles PUT /api/questionnaires/{key}/questions.
// Questions are matched by code.
func (h *QuestionnairesHandler) UpsertQuestion(w http.ResponseWriter, r *http.Request) {
	var req services.QuestionRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	question, err := h.questionnaireService.UpsertQuestion(r.Context(), r.PathValue("key"), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "save question")
		return
	}
	writeData(w, h.logger, http.StatusOK, question)
}
