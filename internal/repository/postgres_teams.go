package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresTeamsRepository 团队Repository实现
type PostgresTeamsRepository struct {
	db *sql.DB
}

func NewPostgresTeamsRepository(db *sql.DB) *PostgresTeamsRepository {
	return &PostgresTeamsRepository{db: db}
}

var _ TeamsRepository = (*PostgresTeamsRepository)(nil)

func (r *PostgresTeamsRepository) CreateTeam(ctx context.Context, t *domain.Team) (string, error) {
	id := t.TeamID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teams (team_id, name, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, t.Name, t.CreatedBy, t.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to create team: %w", err)
	}
	return id, nil
}

func (r *PostgresTeamsRepository) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	var t domain.Team
	err := r.db.QueryRowContext(ctx, `
		SELECT team_id::text, name, COALESCE(created_by::text, ''), created_at
		FROM teams
		WHERE team_id::text = $1
	`, teamID).Scan(&t.TeamID, &t.Name, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &t, nil
}

func (r *PostgresTeamsRepository) RenameTeam(ctx context.Context, teamID, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE teams SET name = $2 WHERE team_id = $1`, teamID, name)
	if err != nil {
		return fmt.Errorf("failed to rename team: %w", err)
	}
	return affected(res, "team", teamID)
}

func (r *PostgresTeamsRepository) DeleteTeam(ctx context.Context, teamID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE team_id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return affected(res, "team", teamID)
}

// PostgresMembershipRepository 成员关系Repository实现
type PostgresMembershipRepository struct {
	db *sql.DB
}

func NewPostgresMembershipRepository(db *sql.DB) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

var _ MembershipRepository = (*PostgresMembershipRepository)(nil)

const memberColumns = `team_id::text, user_id::text, email, role, pending, invited_by, created_at`

func (r *PostgresMembershipRepository) AddMember(ctx context.Context, m *domain.TeamMember) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id, email, role, pending, invited_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.TeamID, m.UserID, m.Email, string(m.Role), m.Pending, m.InvitedBy, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("member %s of team %s: %w", m.UserID, m.TeamID, ErrConflict)
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (r *PostgresMembershipRepository) GetMember(ctx context.Context, teamID, userID string) (*domain.TeamMember, error) {
	var m domain.TeamMember
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID).
		Scan(&m.TeamID, &m.UserID, &m.Email, &role, &m.Pending, &m.InvitedBy, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member %s of team %s: %w", userID, teamID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	m.Role = domain.Role(role)
	return &m, nil
}

func (r *PostgresMembershipRepository) ListMembers(ctx context.Context, teamID string) ([]*domain.TeamMember, error) {
	return r.query(ctx, `SELECT `+memberColumns+` FROM team_members WHERE team_id = $1 ORDER BY created_at, email`, teamID)
}

func (r *PostgresMembershipRepository) ListByUser(ctx context.Context, userID string) ([]*domain.TeamMember, error) {
	return r.query(ctx, `SELECT `+memberColumns+` FROM team_members WHERE user_id = $1 ORDER BY created_at, email`, userID)
}

func (r *PostgresMembershipRepository) query(ctx context.Context, q string, arg string) ([]*domain.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	out := []*domain.TeamMember{}
	for rows.Next() {
		var m domain.TeamMember
		var role string
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Email, &role, &m.Pending, &m.InvitedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Role = domain.Role(role)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return out, nil
}

func (r *PostgresMembershipRepository) UpdateMember(ctx context.Context, m *domain.TeamMember) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE team_members SET role = $3, pending = $4
		WHERE team_id = $1 AND user_id = $2
	`, m.TeamID, m.UserID, string(m.Role), m.Pending)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return affected(res, "member", m.UserID)
}

func (r *PostgresMembershipRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return affected(res, "member", userID)
}

func (r *PostgresMembershipRepository) RemoveByTeam(ctx context.Context, teamID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to remove members: %w", err)
	}
	return nil
}
