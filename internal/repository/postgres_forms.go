package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"beneficiary-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresFormLinkRepository 表单链接Repository实现
type PostgresFormLinkRepository struct {
	db *sql.DB
}

func NewPostgresFormLinkRepository(db *sql.DB) *PostgresFormLinkRepository {
	return &PostgresFormLinkRepository{db: db}
}

var _ FormLinkRepository = (*PostgresFormLinkRepository)(nil)

const linkColumns = `link_id::text, team_id::text, name, active, created_by, created_at`

func (r *PostgresFormLinkRepository) CreateLink(ctx context.Context, l *domain.FormLink) (string, error) {
	id := l.LinkID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO form_links (link_id, team_id, name, active, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, l.TeamID, l.Name, l.Active, l.CreatedBy, l.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to create form link: %w", err)
	}
	return id, nil
}

func (r *PostgresFormLinkRepository) GetLink(ctx context.Context, teamID, linkID string) (*domain.FormLink, error) {
	var l domain.FormLink
	err := r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM form_links WHERE team_id::text = $1 AND link_id::text = $2`, teamID, linkID).
		Scan(&l.LinkID, &l.TeamID, &l.Name, &l.Active, &l.CreatedBy, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("form link %s: %w", linkID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get form link: %w", err)
	}
	return &l, nil
}

func (r *PostgresFormLinkRepository) ListLinks(ctx context.Context, teamID string) ([]*domain.FormLink, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+linkColumns+` FROM form_links WHERE team_id = $1 ORDER BY created_at, link_id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list form links: %w", err)
	}
	defer rows.Close()

	out := []*domain.FormLink{}
	for rows.Next() {
		var l domain.FormLink
		if err := rows.Scan(&l.LinkID, &l.TeamID, &l.Name, &l.Active, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan form link: %w", err)
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list form links: %w", err)
	}
	return out, nil
}

func (r *PostgresFormLinkRepository) UpdateLink(ctx context.Context, l *domain.FormLink) error {
	res, err := r.db.ExecContext(ctx, `UPDATE form_links SET name = $3, active = $4 WHERE team_id = $1 AND link_id = $2`,
		l.TeamID, l.LinkID, l.Name, l.Active)
	if err != nil {
		return fmt.Errorf("failed to update form link: %w", err)
	}
	return affected(res, "form link", l.LinkID)
}

func (r *PostgresFormLinkRepository) DeleteLink(ctx context.Context, teamID, linkID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM form_links WHERE team_id = $1 AND link_id = $2`, teamID, linkID)
	if err != nil {
		return fmt.Errorf("failed to delete form link: %w", err)
	}
	return affected(res, "form link", linkID)
}

func (r *PostgresFormLinkRepository) DeleteLinksByTeam(ctx context.Context, teamID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM form_links WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to delete form links: %w", err)
	}
	return nil
}

// PostgresSubmissionRepository 表单提交Repository实现
// The applicant's values are stored as one JSONB document.
type PostgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) *PostgresSubmissionRepository {
	return &PostgresSubmissionRepository{db: db}
}

var _ SubmissionRepository = (*PostgresSubmissionRepository)(nil)

const submissionColumns = `submission_id::text, team_id::text, link_id, record, status, promoted_id, submitted_at, updated_at`

func (r *PostgresSubmissionRepository) CreateSubmission(ctx context.Context, s *domain.Submission) (string, error) {
	id := s.SubmissionID
	if id == "" {
		id = uuid.NewString()
	}
	record, err := json.Marshal(s.Record)
	if err != nil {
		return "", fmt.Errorf("failed to encode submission: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO form_submissions (submission_id, team_id, link_id, record, status, promoted_id, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, s.TeamID, s.LinkID, record, string(s.Status), s.PromotedID, s.SubmittedAt, s.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to create submission: %w", err)
	}
	return id, nil
}

func scanSubmission(row rowScanner) (*domain.Submission, error) {
	var s domain.Submission
	var record []byte
	var status string
	if err := row.Scan(&s.SubmissionID, &s.TeamID, &s.LinkID, &record, &status, &s.PromotedID, &s.SubmittedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(record, &s.Record); err != nil {
		return nil, fmt.Errorf("failed to decode submission %s: %w", s.SubmissionID, err)
	}
	s.Status = domain.SubmissionStatus(status)
	return &s, nil
}

func (r *PostgresSubmissionRepository) GetSubmission(ctx context.Context, teamID, submissionID string) (*domain.Submission, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM form_submissions WHERE team_id::text = $1 AND submission_id::text = $2`, teamID, submissionID)
	s, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

func (r *PostgresSubmissionRepository) ListSubmissions(ctx context.Context, teamID, linkID string) ([]*domain.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM form_submissions WHERE team_id = $1`
	args := []any{teamID}
	if linkID != "" {
		q += ` AND link_id = $2`
		args = append(args, linkID)
	}
	q += ` ORDER BY submitted_at, submission_id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	out := []*domain.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return out, nil
}

func (r *PostgresSubmissionRepository) UpdateSubmission(ctx context.Context, s *domain.Submission) error {
	record, err := json.Marshal(s.Record)
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE form_submissions SET record = $3, status = $4, promoted_id = $5, updated_at = $6
		WHERE team_id = $1 AND submission_id = $2
	`, s.TeamID, s.SubmissionID, record, string(s.Status), s.PromotedID, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return affected(res, "submission", s.SubmissionID)
}

func (r *PostgresSubmissionRepository) DeleteSubmission(ctx context.Context, teamID, submissionID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM form_submissions WHERE team_id::text = $1 AND submission_id::text = $2`, teamID, submissionID)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return affected(res, "submission", submissionID)
}

func (r *PostgresSubmissionRepository) DeleteSubmissionsByTeam(ctx context.Context, teamID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM form_submissions WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to delete submissions: %w", err)
	}
	return nil
}
