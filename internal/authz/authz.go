// Package authz decides whether a caller may act on a team's data.
//
// The decision is a pure function of the caller, the caller's membership in
// the team and the action. Unknown actions and missing memberships are
// denied (strictest default).
package authz

import "beneficiary-data/internal/domain"

// Action is an operation on team-scoped data.
type Action string

const (
	ReadRecords        Action = "records:read"
	WriteRecords       Action = "records:write"
	DeleteRecords      Action = "records:delete"
	ClearRecords       Action = "records:clear"
	ReadFormLinks      Action = "form_links:read"
	ManageFormLinks    Action = "form_links:manage"
	ReadSubmissions    Action = "submissions:read"
	DeleteSubmissions  Action = "submissions:delete"
	PromoteSubmissions Action = "submissions:promote"
	ReadTeam           Action = "team:read"
	ManageTeam         Action = "team:manage"
	ManageMembers      Action = "members:manage"
	AcceptInvitation   Action = "members:accept"
)

// memberActions are granted to every active member; admins get everything
// in adminActions on top.
var memberActions = map[Action]bool{
	ReadRecords:        true,
	WriteRecords:       true,
	DeleteRecords:      true,
	ReadFormLinks:      true,
	ReadSubmissions:    true,
	DeleteSubmissions:  true,
	PromoteSubmissions: true,
	ReadTeam:           true,
}

var adminActions = map[Action]bool{
	ClearRecords:    true,
	ManageFormLinks: true,
	ManageTeam:      true,
	ManageMembers:   true,
}

// Principal identifies the caller.
type Principal struct {
	UserID string
	Email  string
}

// PrincipalFromSession extracts the caller from an explicit session.
func PrincipalFromSession(s *domain.Session) Principal {
	if s == nil {
		return Principal{}
	}
	return Principal{UserID: s.UserID, Email: s.Email}
}

// Decision is an allow/deny verdict with the reason for it.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Authorize evaluates action for p given p's membership m in the team
// (nil when p is not a member).
func Authorize(p Principal, m *domain.TeamMember, action Action) Decision {
	if p.UserID == "" {
		return deny("not signed in")
	}
	if m == nil {
		return deny("not a member of this team")
	}
	if m.UserID != p.UserID {
		return deny("membership belongs to another user")
	}
	if action == AcceptInvitation {
		if !m.Pending {
			return deny("no pending invitation")
		}
		return allow("invited user")
	}
	if m.Pending {
		return deny("invitation not accepted")
	}
	switch m.Role {
	case domain.RoleAdmin:
		if memberActions[action] || adminActions[action] {
			return allow("team admin")
		}
	case domain.RoleMember:
		if memberActions[action] {
			return allow("team member")
		}
		if adminActions[action] {
			return deny("requires team admin")
		}
	default:
		return deny("unknown role")
	}
	return deny("unknown action")
}
