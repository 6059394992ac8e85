package handler

import (
	"net/http"

	"github.com/critforge/api/internal/middleware"
	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/service"
)

// UserHandler handles user account HTTP requests
type UserHandler struct {
	svc *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me handles GET /v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.Get(ctx, userID))
}

// Update handles PATCH /v1/users/me
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var req model.UpdateUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidUserData, "Invalid request body")
		return
	}

	Respond(w, http.StatusOK, h.svc.Update(ctx, userID, &req))
}

// Delete handles DELETE /v1/users/me
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	result := h.svc.Delete(ctx, userID)
	if !result.Success {
		WriteFailure(w, result.Error)
		return
	}
	WriteNoContent(w)
}

// Limits handles GET /v1/users/me/limits
func (h *UserHandler) Limits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.Limits(ctx, userID))
}

// GetPublic handles GET /v1/users/{userId}
func (h *UserHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.GetPublic(ctx, r.PathValue("userId")))
}
