package domain

import "time"

// FormLink routes public applicants to the submission form of one team.
type FormLink struct {
	LinkID    string    `json:"link_id" db:"link_id"`
	TeamID    string    `json:"team_id" db:"team_id"`
	Name      string    `json:"name" db:"name"`
	Active    bool      `json:"active" db:"active"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	URL       string    `json:"url,omitempty" db:"-"`
}
