// Package auth signs users up and in with email and password and issues
// opaque access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"geocapture/internal/logger"
	"geocapture/internal/model"
	"geocapture/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// Service is the authentication provider used by the HTTP layer.
type Service struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	ttl      time.Duration
	logger   *logger.Logger

	// Now is the clock used for expiry; tests replace it.
	Now func() time.Time
}

func NewService(users repository.UserRepository, sessions repository.SessionRepository, ttl time.Duration, logger *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
		Now:      time.Now,
	}
}

// SignUp creates an account and returns a session for it.
func (s *Service) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.Now().UTC(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("User %s signed up", email)
	return s.issue(ctx, user)
}

// SignIn checks the credentials and returns a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		s.logger.Warning("Failed sign-in for %s", email)
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

// Validate resolves an access token. Expired sessions are removed.
func (s *Service) Validate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if session.Expired(s.Now()) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			s.logger.Warning("Error deleting expired session: %v", err)
		}
		return nil, ErrSessionExpired
	}
	return session, nil
}

// SignOut revokes token. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// PurgeExpired drops every expired session.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.Now())
}

func (s *Service) issue(ctx context.Context, user *model.User) (*model.Session, error) {
	session := &model.Session{
		AccessToken: uuid.New().String(),
		UserID:      user.ID,
		ExpiresAt:   s.Now().Add(s.ttl).UTC(),
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// HashPassword hashes a password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash checks a password hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
