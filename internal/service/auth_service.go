package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/repository"
	"beneficiary-data/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

// AuthService 账户注册、登录与会话
type AuthService struct {
	users    repository.UsersRepository
	sessions *store.SessionStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(users repository.UsersRepository, sessions *store.SessionStore, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, sessions: sessions, logger: logger, now: time.Now}
}

// Register creates an account. Emails are unique ignoring case.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return nil, invalidf("enter a valid email address")
	}
	if len(password) < MinPasswordLength {
		return nil, invalidf("password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &domain.User{
		Email:        addr.Address,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	id, err := s.users.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, invalidf("email is already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	u.UserID = id
	s.logger.Info("user registered", zap.String("user_id", id))
	return u, nil
}

// Login checks the password and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}
	now := s.now().UTC()
	sess := &domain.Session{
		Token:       token,
		UserID:      u.UserID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.sessions.TTL()),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Resolve returns the live session for token or ErrUnauthenticated.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	sess, err := s.sessions.Load(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return sess, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func requireSession(s *domain.Session) error {
	if s == nil || s.UserID == "" {
		return ErrUnauthenticated
	}
	return nil
}
