package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/services"
)

// UsersHandler handles user administration.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
// Every route requires the admin role.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, admin RouteWrapper) {
	mux.HandleFunc("GET /api/users", admin(h.List))
	mux.HandleFunc("POST /api/users", admin(h.Create))
	mux.HandleFunc("GET /api/users/{uid}", admin(h.Get))
	mux.HandleFunc("PUT /api/users/{uid}", admin(h.Update))
	mux.HandleFunc("DELETE /api/users/{uid}", admin(h.Delete))
}

// List handles GET /api/users?role=
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		writeServiceError(w, h.logger, err, "list users")
		return
	}
	writeData(w, h.logger, http.StatusOK, users)
}

// Create handles POST /api/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.UserRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create user")
		return
	}
	writeData(w, h.logger, http.StatusCreated, user)
}

// Get handles GET /api/users/{uid}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get user")
		return
	}
	writeData(w, h.logger, http.StatusOK, user)
}

// Update handles PUT /api/users/{uid}
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.UserRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	user, err := h.userService.Update(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update user")
		return
	}
	writeData(w, h.logger, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{uid}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		writeServiceError(w, h.logger, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
