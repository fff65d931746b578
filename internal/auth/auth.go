// Package auth handles account registration, login and session
// lifecycle. Passwords are stored as bcrypt hashes; sessions are
// opaque UUID tokens persisted through the storage layer so they
// survive restarts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"finplan/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrLongPassword       = errors.New("password must not exceed 72 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrNameRequired       = errors.New("name is required")
)

type Service struct {
	store      storage.Store
	sessionTTL time.Duration
}

func NewService(store storage.Store, sessionTTL time.Duration) *Service {
	return &Service{store: store, sessionTTL: sessionTTL}
}

// Register creates an account and returns the stored user.
func (s *Service) Register(ctx context.Context, email, password, name string) (storage.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if name == "" {
		return storage.User{}, ErrNameRequired
	}
	if !strings.Contains(email, "@") || len(email) < 3 {
		return storage.User{}, ErrInvalidEmail
	}
	if err := ValidatePassword(password); err != nil {
		return storage.User{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return storage.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, hash, name)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return storage.User{}, ErrEmailTaken
		}
		return storage.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and opens a new session, returning the
// user and the session token to set as a cookie.
func (s *Service) Login(ctx context.Context, email, password string) (storage.User, string, error) {
	email = normalizeEmail(email)

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.User{}, "", ErrInvalidCredentials
		}
		return storage.User{}, "", fmt.Errorf("look up user: %w", err)
	}

	if err := ComparePassword(password, user.PasswordHash); err != nil {
		return storage.User{}, "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.store.CreateSession(ctx, token, user.ID, time.Now().Add(s.sessionTTL)); err != nil {
		return storage.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return user, token, nil
}

// Logout invalidates the session token. A missing session is not an
// error; the outcome is the same.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// UserFromToken resolves a session token to its user, enforcing expiry.
func (s *Service) UserFromToken(ctx context.Context, token string) (storage.User, error) {
	if token == "" {
		return storage.User{}, storage.ErrNotFound
	}
	return s.store.SessionUser(ctx, token, time.Now())
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ValidatePassword enforces length bounds. The upper bound matches
// bcrypt's 72-byte input limit, beyond which it silently truncates.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	if len(password) > 72 {
		return ErrLongPassword
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
