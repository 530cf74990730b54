// Package http provides the HTTP handlers and router of the DocDesk API:
// password login with bearer tokens, doctor profiles, FAQs and uploads.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/DocDesk/internal/middleware"
	"github.com/atinyakov/DocDesk/internal/models"
	"github.com/atinyakov/DocDesk/internal/service"
)

// AuthService defines the authentication operations required by the HTTP handlers.
type AuthService interface {
	// Register creates an account.
	Register(ctx context.Context, req service.RegisterRequest) (*models.User, error)
	// Login checks credentials and issues a session token.
	Login(ctx context.Context, req service.LoginRequest) (*service.Session, error)
	// Logout revokes a session token.
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles HTTP requests for registration, login and logout.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Log         *zap.Logger
}

// loginResponse carries the token and role next to the user envelope.
type loginResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	Role    models.Role  `json:"role"`
	Data    *models.User `json:"data"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.Response[*models.User]{
		Success: true,
		Message: "user successfully created",
		Data:    user,
	})
}

// Login handles POST /api/auth/login. It answers with the session token,
// the account role and the user record.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	sess, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: "successfully logged in",
		Token:   sess.Token,
		Role:    sess.User.Role,
		Data:    sess.User,
	})
}

// Logout handles POST /api/auth/logout and revokes the bearer token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenFromContext(r.Context())
	if err := h.AuthService.Logout(r.Context(), token); err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Response[any]{Success: true, Message: "logged out"})
}
