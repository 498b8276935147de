package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/auth"
	"github.com/ThomasConrad/PlantTracker/internal/model"
	"github.com/ThomasConrad/PlantTracker/internal/repository"
)

// AuthService handles registration, login, and session lifecycle.
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginInput is the payload for logging in.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new account. The email is normalized to lower case and
// must not already be registered. Registering does not log the user in; the
// client follows up with Login.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	_, err := s.users.GetUserByEmail(ctx, input.Email)
	if err == nil {
		return nil, apperror.ValidationFailed("email", "is already registered")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("service: hashing password: %w", err)
	}

	user := &model.User{
		Email:         input.Email,
		Name:          input.Name,
		PasswordHash:  hash,
		CalendarToken: auth.NewCalendarToken(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login verifies the credentials and creates a session. Unknown emails and
// wrong passwords produce the same error so the endpoint does not leak which
// addresses are registered.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*model.User, *model.Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := validateStruct(input); err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, nil, err
	}

	if err := s.passwords.Verify(user.PasswordHash, input.Password); err != nil {
		return nil, nil, apperror.Unauthorized("invalid email or password")
	}

	now := time.Now().UTC()
	session := &model.Session{
		ID:        auth.NewSessionID(),
		UserID:    user.ID,
		ExpiresAt: now.Add(auth.SessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return user, session, nil
}

// Logout deletes the session. Logging out with a session that is already
// gone succeeds.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, sessionID)
}

// GetUser returns the user's profile.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}
