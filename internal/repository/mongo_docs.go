package repository

import (
	"strings"
	"time"

	"beneficiary-data/internal/domain"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	EmailLower   string    `bson:"email_lower"`
	DisplayName  string    `bson:"display_name"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

func newUserDoc(u *domain.User) userDoc {
	email := strings.TrimSpace(u.Email)
	return userDoc{
		ID:           u.UserID,
		Email:        email,
		EmailLower:   strings.ToLower(email),
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		UserID:       d.ID,
		Email:        d.Email,
		DisplayName:  d.DisplayName,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

type teamDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedBy string    `bson:"created_by"`
	CreatedAt time.Time `bson:"created_at"`
}

type memberDoc struct {
	TeamID    string    `bson:"team_id"`
	UserID    string    `bson:"user_id"`
	Email     string    `bson:"email"`
	Role      string    `bson:"role"`
	Pending   bool      `bson:"pending"`
	InvitedBy string    `bson:"invited_by"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d memberDoc) toDomain() *domain.TeamMember {
	return &domain.TeamMember{
		TeamID:    d.TeamID,
		UserID:    d.UserID,
		Email:     d.Email,
		Role:      domain.Role(d.Role),
		Pending:   d.Pending,
		InvitedBy: d.InvitedBy,
		CreatedAt: d.CreatedAt,
	}
}

// recordDoc holds the schema values. Amount is kept as a decimal string;
// AmountValue is a float copy used only for sorting.
type recordDoc struct {
	Fields      map[string]string `bson:"fields"`
	Amount      string            `bson:"amount"`
	AmountValue float64           `bson:"amount_value"`
}

func newRecordDoc(b *domain.Beneficiary) recordDoc {
	fields := make(map[string]string, len(domain.Schema))
	for _, f := range domain.Schema {
		if f.Key != domain.FieldAmount {
			fields[f.Key] = b.Get(f.Key)
		}
	}
	v, _ := b.Amount.Float64()
	return recordDoc{Fields: fields, Amount: b.Amount.String(), AmountValue: v}
}

func (d recordDoc) apply(b *domain.Beneficiary) {
	for _, f := range domain.Schema {
		if f.Key == domain.FieldAmount {
			_ = b.Set(f.Key, d.Amount)
			continue
		}
		_ = b.Set(f.Key, d.Fields[f.Key])
	}
}

type beneficiaryDoc struct {
	ID        string    `bson:"_id"`
	TeamID    string    `bson:"team_id"`
	Record    recordDoc `bson:",inline"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func newBeneficiaryDoc(b *domain.Beneficiary) beneficiaryDoc {
	return beneficiaryDoc{
		ID:        b.BeneficiaryID,
		TeamID:    b.TeamID,
		Record:    newRecordDoc(b),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func (d beneficiaryDoc) toDomain() *domain.Beneficiary {
	b := &domain.Beneficiary{
		BeneficiaryID: d.ID,
		TeamID:        d.TeamID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	d.Record.apply(b)
	return b
}

type linkDoc struct {
	ID        string    `bson:"_id"`
	TeamID    string    `bson:"team_id"`
	Name      string    `bson:"name"`
	Active    bool      `bson:"active"`
	CreatedBy string    `bson:"created_by"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d linkDoc) toDomain() *domain.FormLink {
	return &domain.FormLink{
		LinkID:    d.ID,
		TeamID:    d.TeamID,
		Name:      d.Name,
		Active:    d.Active,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
	}
}

type submissionDoc struct {
	ID          string    `bson:"_id"`
	TeamID      string    `bson:"team_id"`
	LinkID      string    `bson:"link_id"`
	Record      recordDoc `bson:"record"`
	Status      string    `bson:"status"`
	PromotedID  string    `bson:"promoted_id"`
	SubmittedAt time.Time `bson:"submitted_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d submissionDoc) toDomain() *domain.Submission {
	s := &domain.Submission{
		SubmissionID: d.ID,
		TeamID:       d.TeamID,
		LinkID:       d.LinkID,
		Status:       domain.SubmissionStatus(d.Status),
		PromotedID:   d.PromotedID,
		SubmittedAt:  d.SubmittedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	d.Record.apply(&s.Record)
	return s
}
