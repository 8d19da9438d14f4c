package authz

import (
	"context"
	"errors"
	"fmt"

	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/repository"

	"go.uber.org/zap"
)

// DeniedError is returned when a check denies an action.
type DeniedError struct {
	TeamID string
	Action Action
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Reason)
}

// IsDenied reports whether err is (or wraps) a DeniedError.
func IsDenied(err error) bool {
	var d *DeniedError
	return errors.As(err, &d)
}

// Checker loads the caller's membership and applies Authorize. Services call
// it before every read or write.
type Checker struct {
	members repository.MembershipRepository
	logger  *zap.Logger
}

func NewChecker(members repository.MembershipRepository, logger *zap.Logger) *Checker {
	return &Checker{members: members, logger: logger}
}

// Check returns the caller's membership when the action is allowed, a
// *DeniedError when it is not, or a storage error.
func (c *Checker) Check(ctx context.Context, session *domain.Session, teamID string, action Action) (*domain.TeamMember, error) {
	p := PrincipalFromSession(session)
	var member *domain.TeamMember
	if p.UserID != "" && teamID != "" {
		m, err := c.members.GetMember(ctx, teamID, p.UserID)
		switch {
		case err == nil:
			member = m
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, fmt.Errorf("failed to load membership: %w", err)
		}
	}

	d := Authorize(p, member, action)
	if !d.Allowed {
		c.logger.Warn("authorization denied",
			zap.String("user_id", p.UserID),
			zap.String("team_id", teamID),
			zap.String("action", string(action)),
			zap.String("reason", d.Reason),
		)
		return nil, &DeniedError{TeamID: teamID, Action: action, Reason: d.Reason}
	}
	return member, nil
}
