package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pressroom/pressroom/internal/auth"
	"github.com/pressroom/pressroom/internal/handler/dto"
	"github.com/pressroom/pressroom/internal/model"
	"github.com/pressroom/pressroom/internal/service"
)

// ArticleManager reads and mutates articles.
type ArticleManager interface {
	ListPublished(ctx context.Context) ([]*model.ArticleWithAuthor, error)
	Get(ctx context.Context, viewer *model.Identity, id string) (*model.ArticleWithAuthor, error)
	Create(ctx context.Context, actor *model.Identity, input service.CreateArticleInput) (*model.Article, error)
	Update(ctx context.Context, actor *model.Identity, id string, input service.UpdateArticleInput) (*model.Article, error)
	Delete(ctx context.Context, actor *model.Identity, id string) error
}

// ArticleHandler handles HTTP requests for article operations.
type ArticleHandler struct {
	svc    ArticleManager
	logger *slog.Logger
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(svc ArticleManager, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{svc: svc, logger: logger}
}

// List handles GET /api/articles. Only published articles are returned.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.svc.ListPublished(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToArticleListResponse(articles))
}

// Get handles GET /api/articles/{id}. The identity is optional here.
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	article, err := h.svc.Get(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ArticleEnvelope{Article: dto.ToArticleWithAuthorResponse(article)})
}

// Create handles POST /api/articles.
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	article, err := h.svc.Create(r.Context(), auth.IdentityFromContext(r.Context()), service.CreateArticleInput{
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ArticleEnvelope{Article: dto.ToArticleResponse(article)})
}

// Update handles PATCH and PUT /api/articles/{id}.
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.ArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	article, err := h.svc.Update(r.Context(), auth.IdentityFromContext(r.Context()), id, service.UpdateArticleInput{
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("article_updated", "article_id", id)
	writeJSON(w, http.StatusOK, dto.ArticleEnvelope{Article: dto.ToArticleResponse(article)})
}

// Delete handles DELETE /api/articles/{id}.
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), auth.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Article deleted"})
}
