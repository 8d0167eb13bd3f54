package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressroom/pressroom/internal/auth"
	"github.com/pressroom/pressroom/internal/model"
	"github.com/pressroom/pressroom/internal/repository"
)

// UserService handles user account management.
type UserService struct {
	users    UserStore
	articles ArticleCache
	logger   *slog.Logger
}

// NewUserService creates a new UserService. The published-article cache
// embeds author fields, so renames and deletes invalidate it; articles may
// be nil.
func NewUserService(users UserStore, articles ArticleCache, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		articles: articles,
		logger:   logger.With("component", "service.user"),
	}
}

// UpdateUserInput defines the mutable user fields. Empty values are left unchanged.
type UpdateUserInput struct {
	Name     string
	Password string
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, model.CanonicalID(id))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Create adds a user on behalf of an authenticated actor.
func (s *UserService) Create(ctx context.Context, actor *model.Identity, input RegisterInput) (*model.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	user, err := createUser(ctx, s.users, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "actor_id", actor.ID)
	return user, nil
}

// Update changes the actor's own account.
func (s *UserService) Update(ctx context.Context, actor *model.Identity, id string, input UpdateUserInput) (*model.User, error) {
	user, err := s.ownAccount(ctx, actor, id, "Not authorized to update this user")
	if err != nil {
		return nil, err
	}

	renamed := false
	if name := strings.TrimSpace(input.Name); name != "" && name != user.Name {
		user.Name = name
		renamed = true
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if renamed {
		s.invalidateArticles(ctx)
	}
	return user, nil
}

// Delete removes the actor's own account. Their articles go with it.
func (s *UserService) Delete(ctx context.Context, actor *model.Identity, id string) error {
	user, err := s.ownAccount(ctx, actor, id, "Not authorized to delete this user")
	if err != nil {
		return err
	}

	if err := s.users.DeleteUser(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.invalidateArticles(ctx)

	s.logger.Info("user deleted", "user_id", user.ID)
	return nil
}

func (s *UserService) invalidateArticles(ctx context.Context) {
	if s.articles == nil {
		return
	}
	if err := s.articles.InvalidatePublishedArticles(ctx); err != nil {
		s.logger.Warn("article cache invalidation failed", "error", err)
	}
}

// ownAccount loads the user and checks the actor owns it.
// Missing users are reported before ownership.
func (s *UserService) ownAccount(ctx context.Context, actor *model.Identity, id, deniedMessage string) (*model.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Is(user.ID) {
		return nil, denied(deniedMessage)
	}
	return user, nil
}
