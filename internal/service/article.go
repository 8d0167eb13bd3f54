package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressroom/pressroom/internal/cache"
	"github.com/pressroom/pressroom/internal/metrics"
	"github.com/pressroom/pressroom/internal/model"
	"github.com/pressroom/pressroom/internal/repository"
)

// ArticleStore persists articles and resolves their authors.
type ArticleStore interface {
	CreateArticle(ctx context.Context, article *model.Article) error
	GetArticleByID(ctx context.Context, id string) (*model.Article, error)
	GetArticleWithAuthor(ctx context.Context, id string) (*model.ArticleWithAuthor, error)
	ListPublishedArticles(ctx context.Context) ([]*model.Article, error)
	UpdateArticle(ctx context.Context, article *model.Article) error
	DeleteArticle(ctx context.Context, id string) error
	GetUserSummaries(ctx context.Context, ids []string) (map[string]model.AuthorSummary, error)
}

// ArticleCache caches the published article list.
type ArticleCache interface {
	GetPublishedArticles(ctx context.Context) ([]*model.ArticleWithAuthor, error)
	SetPublishedArticles(ctx context.Context, articles []*model.ArticleWithAuthor, ttl time.Duration) error
	InvalidatePublishedArticles(ctx context.Context) error
}

// ContentSanitizer cleans user-supplied markup.
type ContentSanitizer interface {
	Title(raw string) string
	Body(raw string) string
}

// ArticleService handles article business logic.
type ArticleService struct {
	store     ArticleStore
	cache     ArticleCache
	sanitizer ContentSanitizer
	cacheTTL  time.Duration
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// NewArticleService creates a new ArticleService. A nil cache disables list caching.
func NewArticleService(store ArticleStore, articleCache ArticleCache, sanitizer ContentSanitizer, cacheTTL time.Duration, logger *slog.Logger, recorder metrics.Recorder) *ArticleService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ArticleService{
		store:     store,
		cache:     articleCache,
		sanitizer: sanitizer,
		cacheTTL:  cacheTTL,
		logger:    logger.With("component", "service.article"),
		metrics:   recorder,
	}
}

// CreateArticleInput defines input for creating an article.
type CreateArticleInput struct {
	Title   string
	Content string
	Status  string
}

// UpdateArticleInput defines input for updating an article.
// Empty fields are left unchanged.
type UpdateArticleInput struct {
	Title   string
	Content string
	Status  string
}

// ListPublished returns published articles newest first, with authors populated.
func (s *ArticleService) ListPublished(ctx context.Context) ([]*model.ArticleWithAuthor, error) {
	if s.cache != nil {
		cached, err := s.cache.GetPublishedArticles(ctx)
		if err == nil {
			s.metrics.IncArticleCacheHit()
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("article cache read failed", "error", err)
		}
		s.metrics.IncArticleCacheMiss()
	}

	articles, err := s.store.ListPublishedArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published articles: %w", err)
	}

	ids := make([]string, 0, len(articles))
	seen := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.AuthorID]; ok {
			continue
		}
		seen[a.AuthorID] = struct{}{}
		ids = append(ids, a.AuthorID)
	}

	authors, err := s.store.GetUserSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}

	result := make([]*model.ArticleWithAuthor, 0, len(articles))
	for _, a := range articles {
		author, ok := authors[a.AuthorID]
		if !ok {
			author = model.AuthorSummary{ID: a.AuthorID}
		}
		result = append(result, &model.ArticleWithAuthor{Article: *a, Author: author})
	}

	if s.cache != nil {
		if err := s.cache.SetPublishedArticles(ctx, result, s.cacheTTL); err != nil {
			s.logger.Warn("article cache write failed", "error", err)
		}
	}

	return result, nil
}

// Get returns one article. Drafts are only returned to their author; viewer may be nil.
func (s *ArticleService) Get(ctx context.Context, viewer *model.Identity, id string) (*model.ArticleWithAuthor, error) {
	article, err := s.store.GetArticleWithAuthor(ctx, model.CanonicalID(id))
	if err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}

	if !CanRead(viewer, &article.Article) {
		return nil, denied("Access denied to access this draft")
	}

	return article, nil
}

// Create stores a new article authored by actor.
func (s *ArticleService) Create(ctx context.Context, actor *model.Identity, input CreateArticleInput) (*model.Article, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	title := s.sanitizer.Title(input.Title)
	content := s.sanitizer.Body(input.Content)
	if title == "" || content == "" {
		return nil, invalid("Title and content are required")
	}

	status := model.StatusDraft
	if input.Status != "" {
		status = model.ArticleStatus(input.Status)
		if !status.IsValid() {
			return nil, invalid("Status must be draft or published")
		}
	}

	now := time.Now().UTC()
	article := &model.Article{
		ID:        model.NewID(),
		Title:     title,
		Content:   content,
		Status:    status,
		AuthorID:  actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateArticle(ctx, article); err != nil {
		if errors.Is(err, repository.ErrAuthorNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("create article: %w", err)
	}

	s.metrics.IncArticleCreated()
	if status == model.StatusPublished {
		s.invalidateList(ctx)
	}

	s.logger.Info("article created", "article_id", article.ID, "author_id", actor.ID, "status", status)
	return article, nil
}

// Update changes an article owned by actor.
func (s *ArticleService) Update(ctx context.Context, actor *model.Identity, id string, input UpdateArticleInput) (*model.Article, error) {
	article, err := s.owned(ctx, actor, id, "Not authorized to update")
	if err != nil {
		return nil, err
	}

	wasPublished := !article.IsDraft()

	if input.Title != "" {
		title := s.sanitizer.Title(input.Title)
		if title == "" {
			return nil, invalid("Title cannot be empty")
		}
		article.Title = title
	}
	if input.Content != "" {
		content := s.sanitizer.Body(input.Content)
		if content == "" {
			return nil, invalid("Content cannot be empty")
		}
		article.Content = content
	}
	if input.Status != "" {
		status := model.ArticleStatus(input.Status)
		if !status.IsValid() {
			return nil, invalid("Status must be draft or published")
		}
		article.Status = status
	}

	if err := s.store.UpdateArticle(ctx, article); err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("update article: %w", err)
	}

	s.metrics.IncArticleUpdated()
	if wasPublished || !article.IsDraft() {
		s.invalidateList(ctx)
	}

	return article, nil
}

// Delete removes an article owned by actor.
func (s *ArticleService) Delete(ctx context.Context, actor *model.Identity, id string) error {
	article, err := s.owned(ctx, actor, id, "Not authorized to delete")
	if err != nil {
		return err
	}

	if err := s.store.DeleteArticle(ctx, article.ID); err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return ErrArticleNotFound
		}
		return fmt.Errorf("delete article: %w", err)
	}

	s.metrics.IncArticleDeleted()
	if !article.IsDraft() {
		s.invalidateList(ctx)
	}

	s.logger.Info("article deleted", "article_id", article.ID, "author_id", actor.ID)
	return nil
}

// owned loads an article and checks actor may modify it.
func (s *ArticleService) owned(ctx context.Context, actor *model.Identity, id, deniedMessage string) (*model.Article, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	article, err := s.store.GetArticleByID(ctx, model.CanonicalID(id))
	if err != nil {
		if errors.Is(err, repository.ErrArticleNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}

	if !CanModify(actor, article) {
		return nil, denied(deniedMessage)
	}
	return article, nil
}

func (s *ArticleService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	// Best effort; the entry expires on its own.
	if err := s.cache.InvalidatePublishedArticles(ctx); err != nil {
		s.logger.Warn("article cache invalidation failed", "error", err)
	}
}
