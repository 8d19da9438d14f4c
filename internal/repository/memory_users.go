package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryUsersRepository keeps accounts in process memory (dev/tests).
type MemoryUsersRepository struct {
	mu      sync.RWMutex
	users   map[string]domain.User // userID -> User
	byEmail map[string]string      // lower(email) -> userID
}

func NewMemoryUsersRepository() *MemoryUsersRepository {
	return &MemoryUsersRepository{
		users:   map[string]domain.User{},
		byEmail: map[string]string{},
	}
}

var _ UsersRepository = (*MemoryUsersRepository)(nil)

func (r *MemoryUsersRepository) CreateUser(_ context.Context, u *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(u.Email))
	if _, ok := r.byEmail[key]; ok {
		return "", fmt.Errorf("email %s: %w", u.Email, ErrConflict)
	}
	stored := *u
	if stored.UserID == "" {
		stored.UserID = uuid.NewString()
	}
	r.users[stored.UserID] = stored
	r.byEmail[key] = stored.UserID
	return stored.UserID, nil
}

func (r *MemoryUsersRepository) GetUser(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return &u, nil
}

func (r *MemoryUsersRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	u := r.users[id]
	return &u, nil
}
