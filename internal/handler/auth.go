package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pressroom/pressroom/internal/handler/dto"
	"github.com/pressroom/pressroom/internal/service"
)

// Authenticator registers and logs in users.
type Authenticator interface {
	Register(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
}

// AuthHandler handles registration and login.
type AuthHandler struct {
	svc    Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TokenResponse{Token: res.Token, ExpiresAt: res.ExpiresAt})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", res.User.ID)
	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: res.Token, ExpiresAt: res.ExpiresAt})
}
