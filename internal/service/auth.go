package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/DocDesk/internal/models"
	"github.com/atinyakov/DocDesk/internal/repository"
)

// UserRepository defines the account persistence used by AuthService.
type UserRepository interface {
	// CreateUser stores a new account; a taken e-mail yields repository.ErrDuplicate.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByEmail returns repository.ErrNotFound for unknown e-mails.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionRepository defines the token persistence used by AuthService.
type SessionRepository interface {
	CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error
	// GetSessionUser returns repository.ErrNotFound for unknown or expired tokens.
	GetSessionUser(ctx context.Context, token string, now time.Time) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"required,oneof=patient doctor"`
	Photo    string      `json:"photo"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is an issued login: the opaque token and who it belongs to.
type Session struct {
	Token     string
	User      *models.User
	ExpiresAt time.Time
}

// AuthService implements password login with opaque, revocable tokens.
type AuthService struct {
	users    UserRepository
	sessions SessionRepository
	ttl      time.Duration
	validate *validator.Validate

	// overridable in tests
	now      func() time.Time
	newToken func() string
	cost     int
}

// NewAuthService constructs an AuthService issuing tokens valid for ttl.
func NewAuthService(users UserRepository, sessions SessionRepository, ttl time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		validate: newValidator(),
		now:      time.Now,
		newToken: uuid.NewString,
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates a patient or doctor account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		Photo:        req.Photo,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("user %s: %w", req.Email, ErrConflict)
		}
		return nil, err
	}
	return u, nil
}

// Login checks the credentials and issues a new session token.
// Unknown e-mails and wrong passwords both yield ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	u, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}

	sess := &Session{
		Token:     s.newToken(),
		User:      u,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, sess.Token, u.ID, sess.ExpiresAt); err != nil {
		return nil, err
	}
	return sess, nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	u, err := s.sessions.GetSessionUser(ctx, token, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Logout revokes token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}
