package domain

import "time"

// Team 租户边界：拥有受益人记录与表单链接
type Team struct {
	TeamID    string    `json:"team_id" db:"team_id"`
	Name      string    `json:"name" db:"name"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Role of a user inside a team.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// TeamMember 团队成员关系（对应 team_members 表）
// Pending is true until the invited user accepts.
type TeamMember struct {
	TeamID    string    `json:"team_id" db:"team_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	Pending   bool      `json:"pending" db:"pending"`
	InvitedBy string    `json:"invited_by,omitempty" db:"invited_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TeamMembership pairs a team with the caller's membership in it.
type TeamMembership struct {
	Team   Team       `json:"team"`
	Member TeamMember `json:"membership"`
}
