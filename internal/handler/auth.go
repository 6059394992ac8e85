package handler

import (
	"net/http"

	"github.com/critforge/api/internal/middleware"
	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// LoginRequest represents the login endpoint request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the password change request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidUserData, "Invalid request body")
		return
	}

	Respond(w, http.StatusCreated, h.svc.Register(r.Context(), &req))
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidUserData, "Invalid request body")
		return
	}

	Respond(w, http.StatusOK, h.svc.Login(r.Context(), req.Email, req.Password))
}

// ChangePassword handles POST /v1/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var req ChangePasswordRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidUserData, "Invalid request body")
		return
	}

	result := h.svc.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	if !result.Success {
		WriteFailure(w, result.Error)
		return
	}
	WriteNoContent(w)
}

// Redirect handles GET /v1/auth/redirect. It sanitizes the post-login
// redirect target supplied by the client, falling back to the root path.
func (h *AuthHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("to")
	if !h.svc.ValidateRedirect(target) {
		target = "/"
	}

	WriteJSON(w, http.StatusOK, model.OK(map[string]string{"redirect": target}))
}
