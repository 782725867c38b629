package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/services"
)

// SendMessageRequest is the body of POST /api/projects/{pid}/messages.
type SendMessageRequest struct {
	ToUserID uuid.UUID `json:"toUserId"`
	Text     string    `json:"text"`
}

// MarkReadResponse reports how many messages were marked read.
type MarkReadResponse struct {
	Marked int64 `json:"marked"`
}

// UnreadCountResponse is the body of GET /api/messages/unread-count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MessagesHandler handles project-scoped direct messages.
type MessagesHandler struct {
	messageService services.MessageService
	projectService services.ProjectService
	logger         *zap.Logger
}

// NewMessagesHandler creates a new messages handler. Project-scoped routes
// require the caller to have access to the project.
func NewMessagesHandler(messageService services.MessageService, projectService services.ProjectService, logger *zap.Logger) *MessagesHandler {
	return &MessagesHandler{
		messageService: messageService,
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers the message routes on the given mux.
func (h *MessagesHandler) RegisterRoutes(mux *http.ServeMux, authed RouteWrapper) {
	mux.HandleFunc("POST /api/projects/{pid}/messages", authed(h.Send))
	mux.HandleFunc("GET /api/projects/{pid}/messages/{uid}", authed(h.Conversation))
	mux.HandleFunc("POST /api/projects/{pid}/messages/{uid}/read", authed(h.MarkRead))
	mux.HandleFunc("GET /api/messages/unread-count", authed(h.UnreadCount))
}

// Send handles POST /api/projects/{pid}/messages
func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	projectID, ok := authorizeProject(w, r, h.projectService, h.logger)
	if !ok {
		return
	}

	var req SendMessageRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	msg, err := h.messageService.Send(r.Context(), projectID, req.ToUserID, req.Text)
	if err != nil {
		writeServiceError(w, h.logger, err, "send message")
		return
	}
	writeData(w, h.logger, http.StatusCreated, msg)
}

// Conversation handles GET /api/projects/{pid}/messages/{uid}?limit=
func (h *MessagesHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.conversationIDs(w, r)
	if !ok {
		return
	}
	limit, ok := parseQueryInt(w, r, "limit", h.logger)
	if !ok {
		return
	}

	messages, err := h.messageService.Conversation(r.Context(), projectID, userID, limit)
	if err != nil {
		writeServiceError(w, h.logger, err, "load conversation")
		return
	}
	writeData(w, h.logger, http.StatusOK, messages)
}

// MarkRead handles POST /api/projects/{pid}/messages/{uid}/read
func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.conversationIDs(w, r)
	if !ok {
		return
	}

	marked, err := h.messageService.MarkRead(r.Context(), projectID, userID)
	if err != nil {
		writeServiceError(w, h.logger, err, "mark messages read")
		return
	}
	writeData(w, h.logger, http.StatusOK, MarkReadResponse{Marked: marked})
}

// conversationIDs parses {pid} and {uid} and checks access to the project.
func (h *MessagesHandler) conversationIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	projectID, userID, ok := ParseProjectAndUserIDs(w, r, h.logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	if _, err := h.projectService.Get(r.Context(), projectID); err != nil {
		writeServiceError(w, h.logger, err, "load project")
		return uuid.Nil, uuid.Nil, false
	}
	return projectID, userID, true
}

// UnreadCount handles GET /api/messages/unread-count
func (h *MessagesHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.messageService.UnreadCount(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "count unread messages")
		return
	}
	writeData(w, h.logger, http.StatusOK, UnreadCountResponse{Count: count})
}
