package transport

import (
	"errors"
	"net/http"
	"time"

	"furnishop/internal/middleware"
	"furnishop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the login payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest represents the change-password payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerifyResponse represents a valid session check
type VerifyResponse struct {
	Valid     bool      `json:"valid"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthHandler handles HTTP requests for session operations
type AuthHandler struct {
	auth   service.AuthService
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// RegisterRoutes registers all auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Get("/verify", h.Verify)
		r.Post("/logout", h.Logout)
		r.Post("/change-password", h.ChangePassword)
	})
}

// Login authenticates the admin credential and issues a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		h.logger.Debug("Login failed", zap.String("username", req.Username))
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.logger.Info("Admin logged in", zap.String("username", session.Username))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Verify checks the bearer token
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		middleware.RespondWithError(w, http.StatusUnauthorized, "no token provided")
		return
	}

	session, err := h.auth.Verify(token)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, VerifyResponse{
		Valid:     true,
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout ends the session; absent tokens are fine
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.BearerToken(r); token != "" {
		h.auth.Logout(token)
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ChangePassword validates the session and current password. The live
// credential is environment configuration, so nothing is persisted; the
// response says where to update it.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		middleware.RespondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req ChangePasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.auth.ChangePassword(token, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			middleware.RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
		case errors.Is(err, service.ErrInvalidCredentials):
			middleware.RespondWithError(w, http.StatusUnauthorized, "current password is incorrect")
		case errors.Is(err, service.ErrWeakPassword):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to change password", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password changed successfully. Update ADMIN_PASSWORD_HASH in environment variables.",
	})
}
