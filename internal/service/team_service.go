package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"beneficiary-data/internal/authz"
	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/repository"

	"go.uber.org/zap"
)

// TeamService 团队与成员管理
type TeamService struct {
	store   *repository.Store
	checker *authz.Checker
	logger  *zap.Logger
	now     func() time.Time
}

func NewTeamService(store *repository.Store, checker *authz.Checker, logger *zap.Logger) *TeamService {
	return &TeamService{store: store, checker: checker, logger: logger, now: time.Now}
}

func teamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidf("team name is required")
	}
	if len(name) > 120 {
		return "", invalidf("team name is too long")
	}
	return name, nil
}

// CreateTeam creates a team with the caller as its first admin.
func (s *TeamService) CreateTeam(ctx context.Context, sess *domain.Session, name string) (*domain.TeamMembership, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	name, err := teamName(name)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	team := &domain.Team{Name: name, CreatedBy: sess.UserID, CreatedAt: now}
	id, err := s.store.Teams.CreateTeam(ctx, team)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	team.TeamID = id

	member := &domain.TeamMember{TeamID: id, UserID: sess.UserID, Email: sess.Email, Role: domain.RoleAdmin, CreatedAt: now}
	if err := s.store.Members.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add team admin: %w", err)
	}
	s.logger.Info("team created", zap.String("team_id", id), zap.String("user_id", sess.UserID))
	return &domain.TeamMembership{Team: *team, Member: *member}, nil
}

// ListTeams lists the caller's teams, pending invitations included.
func (s *TeamService) ListTeams(ctx context.Context, sess *domain.Session) ([]domain.TeamMembership, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	memberships, err := s.store.Members.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	out := make([]domain.TeamMembership, 0, len(memberships))
	for _, m := range memberships {
		t, err := s.store.Teams.GetTeam(ctx, m.TeamID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load team: %w", err)
		}
		out = append(out, domain.TeamMembership{Team: *t, Member: *m})
	}
	return out, nil
}

func (s *TeamService) GetTeam(ctx context.Context, sess *domain.Session, teamID string) (*domain.TeamMembership, error) {
	m, err := s.checker.Check(ctx, sess, teamID, authz.ReadTeam)
	if err != nil {
		return nil, err
	}
	t, err := s.store.Teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return &domain.TeamMembership{Team: *t, Member: *m}, nil
}

func (s *TeamService) RenameTeam(ctx context.Context, sess *domain.Session, teamID, name string) error {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ManageTeam); err != nil {
		return err
	}
	name, err := teamName(name)
	if err != nil {
		return err
	}
	return s.store.Teams.RenameTeam(ctx, teamID, name)
}

// DeleteTeam removes the team together with its records, form links,
// submissions and memberships.
func (s *TeamService) DeleteTeam(ctx context.Context, sess *domain.Session, teamID string) error {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ManageTeam); err != nil {
		return err
	}
	n, err := s.store.Beneficiaries.DeleteByTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team records: %w", err)
	}
	if err := s.store.Submissions.DeleteSubmissionsByTeam(ctx, teamID); err != nil {
		return err
	}
	if err := s.store.FormLinks.DeleteLinksByTeam(ctx, teamID); err != nil {
		return err
	}
	if err := s.store.Members.RemoveByTeam(ctx, teamID); err != nil {
		return err
	}
	if err := s.store.Teams.DeleteTeam(ctx, teamID); err != nil {
		return err
	}
	s.logger.Info("team deleted", zap.String("team_id", teamID), zap.String("user_id", sess.UserID), zap.Int("records", n))
	return nil
}

// InviteMember creates a pending membership for a registered user.
func (s *TeamService) InviteMember(ctx context.Context, sess *domain.Session, teamID, email string, role domain.Role) (*domain.TeamMember, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ManageMembers); err != nil {
		return nil, err
	}
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return nil, invalidf("role must be admin or member")
	}
	u, err := s.store.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidf("no registered user with email %s", strings.TrimSpace(email))
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	m := &domain.TeamMember{
		TeamID:    teamID,
		UserID:    u.UserID,
		Email:     u.Email,
		Role:      role,
		Pending:   true,
		InvitedBy: sess.UserID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Members.AddMember(ctx, m); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, invalidf("%s is already a member or invited", u.Email)
		}
		return nil, fmt.Errorf("failed to invite member: %w", err)
	}
	return m, nil
}

// AcceptInvitation activates the caller's pending membership.
func (s *TeamService) AcceptInvitation(ctx context.Context, sess *domain.Session, teamID string) (*domain.TeamMember, error) {
	m, err := s.checker.Check(ctx, sess, teamID, authz.AcceptInvitation)
	if err != nil {
		return nil, err
	}
	m.Pending = false
	if err := s.store.Members.UpdateMember(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	return m, nil
}

func (s *TeamService) ListMembers(ctx context.Context, sess *domain.Session, teamID string) ([]*domain.TeamMember, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ReadTeam); err != nil {
		return nil, err
	}
	return s.store.Members.ListMembers(ctx, teamID)
}

// ChangeRole sets a member's role. The last active admin cannot be demoted.
func (s *TeamService) ChangeRole(ctx context.Context, sess *domain.Session, teamID, userID string, role domain.Role) (*domain.TeamMember, error) {
	if _, err := s.checker.Check(ctx, sess, teamID, authz.ManageMembers); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, invalidf("role must be admin or member")
	}
	target, err := s.store.Members.GetMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleAdmin && role != domain.RoleAdmin && !target.Pending {
		if err := s.ensureOtherAdmin(ctx, teamID); err != nil {
			return nil, err
		}
	}
	target.Role = role
	if err := s.store.Members.UpdateMember(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to change role: %w", err)
	}
	return target, nil
}

// RemoveMember removes a membership or withdraws an invitation. Callers may
// always remove themselves (leave, or decline an invitation); removing
// anyone else needs ManageMembers. The last active admin cannot leave.
func (s *TeamService) RemoveMember(ctx context.Context, sess *domain.Session, teamID, userID string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if userID != sess.UserID {
		if _, err := s.checker.Check(ctx, sess, teamID, authz.ManageMembers); err != nil {
			return err
		}
	}
	target, err := s.store.Members.GetMember(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) && userID == sess.UserID {
			return &authz.DeniedError{TeamID: teamID, Action: authz.ManageMembers, Reason: "not a member of this team"}
		}
		return err
	}
	if target.Role == domain.RoleAdmin && !target.Pending {
		if err := s.ensureOtherAdmin(ctx, teamID); err != nil {
			return err
		}
	}
	return s.store.Members.RemoveMember(ctx, teamID, userID)
}

// ensureOtherAdmin fails with ErrLastAdmin when the team has at most one
// active admin.
func (s *TeamService) ensureOtherAdmin(ctx context.Context, teamID string) error {
	members, err := s.store.Members.ListMembers(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}
	admins := 0
	for _, m := range members {
		if m.Role == domain.RoleAdmin && !m.Pending {
			admins++
		}
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}
