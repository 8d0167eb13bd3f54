package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pressroom/pressroom/internal/auth"
	"github.com/pressroom/pressroom/internal/metrics"
	"github.com/pressroom/pressroom/internal/model"
	"github.com/pressroom/pressroom/internal/repository"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(identity model.Identity) (string, time.Time, error)
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AuthService handles registration and login.
type AuthService struct {
	users   UserStore
	tokens  TokenIssuer
	logger  *slog.Logger
	metrics metrics.Recorder

	// dummyHash is verified against when the username is unknown so both
	// failure paths cost one hash verification.
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens TokenIssuer, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	dummy, _ := auth.HashPassword("pressroom-unknown-user")
	return &AuthService{
		users:     users,
		tokens:    tokens,
		logger:    logger.With("component", "service.auth"),
		metrics:   recorder,
		dummyHash: dummy,
	}
}

// RegisterInput defines input for registration and user creation.
type RegisterInput struct {
	Name     string
	Username string
	Password string
}

// Register creates an account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	user, err := createUser(ctx, s.users, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login verifies credentials and returns a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalid("Please provide username and password")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = auth.VerifyPassword(password, s.dummyHash)
			s.metrics.IncAuthFailure("credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.metrics.IncAuthFailure("credentials")
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// createUser validates input, hashes the password and stores the user.
func createUser(ctx context.Context, users UserStore, input RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(input.Name)
	username := strings.TrimSpace(input.Username)
	if name == "" || username == "" || input.Password == "" {
		return nil, invalid("Please provide name, username, and password")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           model.NewID(),
		Name:         name,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}
