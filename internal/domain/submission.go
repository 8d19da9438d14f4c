package domain

import "time"

// SubmissionStatus tracks whether an application was copied into the records.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionPromoted SubmissionStatus = "promoted"
)

// Submission 公开表单提交（对应 form_submissions 表）
// Record holds the applicant-entered values. Its BeneficiaryID and TeamID are
// unused until promotion.
type Submission struct {
	SubmissionID string           `json:"submission_id" db:"submission_id"`
	TeamID       string           `json:"team_id" db:"team_id"`
	LinkID       string           `json:"link_id,omitempty" db:"link_id"`
	Record       Beneficiary      `json:"record" db:"-"`
	Status       SubmissionStatus `json:"status" db:"status"`
	PromotedID   string           `json:"promoted_id,omitempty" db:"promoted_id"`
	SubmittedAt  time.Time        `json:"submitted_at" db:"submitted_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}
