package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryTeamsRepository supports team management when no database is
// configured.
type MemoryTeamsRepository struct {
	mu    sync.RWMutex
	teams map[string]domain.Team // teamID -> Team
}

func NewMemoryTeamsRepository() *MemoryTeamsRepository {
	return &MemoryTeamsRepository{teams: map[string]domain.Team{}}
}

var _ TeamsRepository = (*MemoryTeamsRepository)(nil)

func (r *MemoryTeamsRepository) CreateTeam(_ context.Context, t *domain.Team) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *t
	if stored.TeamID == "" {
		stored.TeamID = uuid.NewString()
	}
	r.teams[stored.TeamID] = stored
	return stored.TeamID, nil
}

func (r *MemoryTeamsRepository) GetTeam(_ context.Context, teamID string) (*domain.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	return &t, nil
}

func (r *MemoryTeamsRepository) RenameTeam(_ context.Context, teamID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[teamID]
	if !ok {
		return fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	t.Name = name
	r.teams[teamID] = t
	return nil
}

func (r *MemoryTeamsRepository) DeleteTeam(_ context.Context, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[teamID]; !ok {
		return fmt.Errorf("team %s: %w", teamID, ErrNotFound)
	}
	delete(r.teams, teamID)
	return nil
}

type memberKey struct{ teamID, userID string }

// MemoryMembershipRepository 内存版成员关系
type MemoryMembershipRepository struct {
	mu      sync.RWMutex
	members map[memberKey]domain.TeamMember
}

func NewMemoryMembershipRepository() *MemoryMembershipRepository {
	return &MemoryMembershipRepository{members: map[memberKey]domain.TeamMember{}}
}

var _ MembershipRepository = (*MemoryMembershipRepository)(nil)

func (r *MemoryMembershipRepository) AddMember(_ context.Context, m *domain.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memberKey{m.TeamID, m.UserID}
	if _, ok := r.members[k]; ok {
		return fmt.Errorf("member %s of team %s: %w", m.UserID, m.TeamID, ErrConflict)
	}
	r.members[k] = *m
	return nil
}

func (r *MemoryMembershipRepository) GetMember(_ context.Context, teamID, userID string) (*domain.TeamMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[memberKey{teamID, userID}]
	if !ok {
		return nil, fmt.Errorf("member %s of team %s: %w", userID, teamID, ErrNotFound)
	}
	return &m, nil
}

func (r *MemoryMembershipRepository) ListMembers(_ context.Context, teamID string) ([]*domain.TeamMember, error) {
	return r.list(func(m domain.TeamMember) bool { return m.TeamID == teamID }), nil
}

func (r *MemoryMembershipRepository) ListByUser(_ context.Context, userID string) ([]*domain.TeamMember, error) {
	return r.list(func(m domain.TeamMember) bool { return m.UserID == userID }), nil
}

func (r *MemoryMembershipRepository) list(keep func(domain.TeamMember) bool) []*domain.TeamMember {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.TeamMember{}
	for _, m := range r.members {
		if keep(m) {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out
}

func (r *MemoryMembershipRepository) UpdateMember(_ context.Context, m *domain.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memberKey{m.TeamID, m.UserID}
	cur, ok := r.members[k]
	if !ok {
		return fmt.Errorf("member %s of team %s: %w", m.UserID, m.TeamID, ErrNotFound)
	}
	cur.Role = m.Role
	cur.Pending = m.Pending
	r.members[k] = cur
	return nil
}

func (r *MemoryMembershipRepository) RemoveMember(_ context.Context, teamID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memberKey{teamID, userID}
	if _, ok := r.members[k]; !ok {
		return fmt.Errorf("member %s of team %s: %w", userID, teamID, ErrNotFound)
	}
	delete(r.members, k)
	return nil
}

func (r *MemoryMembershipRepository) RemoveByTeam(_ context.Context, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.members {
		if k.teamID == teamID {
			delete(r.members, k)
		}
	}
	return nil
}
