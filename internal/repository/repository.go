package repository

import (
	"context"
	"errors"

	"beneficiary-data/internal/domain"
)

var (
	// ErrNotFound is returned (possibly wrapped) by every lookup that matches
	// nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
)

// UsersRepository 用户账户
type UsersRepository interface {
	// CreateUser stores u and returns its id. Emails are unique
	// case-insensitively; a clash returns ErrConflict.
	CreateUser(ctx context.Context, u *domain.User) (string, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TeamsRepository 团队
type TeamsRepository interface {
	CreateTeam(ctx context.Context, t *domain.Team) (string, error)
	GetTeam(ctx context.Context, teamID string) (*domain.Team, error)
	RenameTeam(ctx context.Context, teamID, name string) error
	// DeleteTeam removes the team row only; dependent data is removed by the
	// caller through the other repositories.
	DeleteTeam(ctx context.Context, teamID string) error
}

// MembershipRepository 团队成员关系（含未接受的邀请）
type MembershipRepository interface {
	// AddMember returns ErrConflict when the user already has a membership
	// (pending or not) in the team.
	AddMember(ctx context.Context, m *domain.TeamMember) error
	GetMember(ctx context.Context, teamID, userID string) (*domain.TeamMember, error)
	ListMembers(ctx context.Context, teamID string) ([]*domain.TeamMember, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.TeamMember, error)
	// UpdateMember persists Role and Pending.
	UpdateMember(ctx context.Context, m *domain.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	RemoveByTeam(ctx context.Context, teamID string) error
}

// BeneficiaryRepository 受益人记录
type BeneficiaryRepository interface {
	// List returns one page of the team's records matching filter and the
	// total number of matches. Empty records never match.
	List(ctx context.Context, teamID string, filter BeneficiaryFilter) ([]*domain.Beneficiary, int, error)
	Get(ctx context.Context, teamID, beneficiaryID string) (*domain.Beneficiary, error)
	// Insert stores b, assigning BeneficiaryID when it is empty, and returns
	// the id.
	Insert(ctx context.Context, b *domain.Beneficiary) (string, error)
	// Update overwrites every schema field of an existing record.
	Update(ctx context.Context, b *domain.Beneficiary) error
	Delete(ctx context.Context, teamID, beneficiaryID string) error
	// DeleteByTeam removes every record of the team and returns how many
	// were removed.
	DeleteByTeam(ctx context.Context, teamID string) (int, error)
}

// FormLinkRepository 公开表单链接
type FormLinkRepository interface {
	CreateLink(ctx context.Context, l *domain.FormLink) (string, error)
	GetLink(ctx context.Context, teamID, linkID string) (*domain.FormLink, error)
	ListLinks(ctx context.Context, teamID string) ([]*domain.FormLink, error)
	// UpdateLink persists Name and Active.
	UpdateLink(ctx context.Context, l *domain.FormLink) error
	DeleteLink(ctx context.Context, teamID, linkID string) error
	DeleteLinksByTeam(ctx context.Context, teamID string) error
}

// SubmissionRepository 表单提交
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, s *domain.Submission) (string, error)
	GetSubmission(ctx context.Context, teamID, submissionID string) (*domain.Submission, error)
	// ListSubmissions lists the team's submissions oldest first; a non-empty
	// linkID restricts the list to that link.
	ListSubmissions(ctx context.Context, teamID, linkID string) ([]*domain.Submission, error)
	// UpdateSubmission persists Record, Status, PromotedID and UpdatedAt.
	UpdateSubmission(ctx context.Context, s *domain.Submission) error
	DeleteSubmission(ctx context.Context, teamID, submissionID string) error
	DeleteSubmissionsByTeam(ctx context.Context, teamID string) error
}

// Store bundles one backend's repositories.
type Store struct {
	Users         UsersRepository
	Teams         TeamsRepository
	Members       MembershipRepository
	Beneficiaries BeneficiaryRepository
	FormLinks     FormLinkRepository
	Submissions   SubmissionRepository
}

// NewMemoryStore returns a Store backed by process memory.
func NewMemoryStore() *Store {
	return &Store{
		Users:         NewMemoryUsersRepository(),
		Teams:         NewMemoryTeamsRepository(),
		Members:       NewMemoryMembershipRepository(),
		Beneficiaries: NewMemoryBeneficiaryRepository(),
		FormLinks:     NewMemoryFormLinkRepository(),
		Submissions:   NewMemorySubmissionRepository(),
	}
}
