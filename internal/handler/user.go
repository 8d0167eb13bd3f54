package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pressroom/pressroom/internal/auth"
	"github.com/pressroom/pressroom/internal/handler/dto"
	"github.com/pressroom/pressroom/internal/model"
	"github.com/pressroom/pressroom/internal/service"
)

// UserManager manages user accounts.
type UserManager interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, actor *model.Identity, input service.RegisterInput) (*model.User, error)
	Update(ctx context.Context, actor *model.Identity, id string, input service.UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, actor *model.Identity, id string) error
}

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	svc    UserManager
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserManager, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserListResponse(users))
}

// Get handles GET /api/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.UserEnvelope{User: dto.ToUserResponse(user)})
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Create(r.Context(), auth.IdentityFromContext(r.Context()), service.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
	})
	if errors.Is(err, service.ErrUsernameTaken) {
		writeError(w, http.StatusBadRequest, "USERNAME_TAKEN", "Username already taken")
		return
	}
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.UserEnvelope{User: dto.ToUserResponse(user)})
}

// Update handles PATCH and PUT /api/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Update(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), service.UpdateUserInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserEnvelope{User: dto.ToUserResponse(user)})
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "User deleted"})
}
