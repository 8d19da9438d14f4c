package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"beneficiary-data/internal/domain"
)

const sessionKeyPrefix = "session:"

// ErrSessionNotFound means the token is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps JSON-encoded sessions in a KV under session:<token>.
type SessionStore struct {
	kv  KV
	ttl time.Duration
}

func NewSessionStore(kv KV, ttl time.Duration) *SessionStore {
	return &SessionStore{kv: kv, ttl: ttl}
}

// TTL is the lifetime given to new sessions.
func (s *SessionStore) TTL() time.Duration { return s.ttl }

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	ttl := s.ttl
	if !sess.ExpiresAt.IsZero() {
		ttl = time.Until(sess.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}
	if err := s.kv.Set(ctx, sessionKeyPrefix+sess.Token, string(b), ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns ErrSessionNotFound for unknown, expired or unreadable tokens.
func (s *SessionStore) Load(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	raw, err := s.kv.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, ErrSessionNotFound
	}
	if sess.Expired(time.Now()) {
		_ = s.kv.Del(ctx, sessionKeyPrefix+token)
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.kv.Del(ctx, sessionKeyPrefix+token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
