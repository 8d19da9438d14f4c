package authz

import (
	"context"
	"testing"

	"beneficiary-data/internal/domain"
	"beneficiary-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestChecker_Check(t *testing.T) {
	ctx := context.Background()
	members := repository.NewMemoryMembershipRepository()
	require.NoError(t, members.AddMember(ctx, &domain.TeamMember{TeamID: "t1", UserID: "u1", Role: domain.RoleMember}))

	core, logs := observer.New(zapcore.WarnLevel)
	c := NewChecker(members, zap.New(core))
	session := &domain.Session{Token: "tok", UserID: "u1"}

	m, err := c.Check(ctx, session, "t1", ReadRecords)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, m.Role)
	assert.Equal(t, 0, logs.Len())

	_, err = c.Check(ctx, session, "t1", ClearRecords)
	require.Error(t, err)
	assert.True(t, IsDenied(err))
	assert.Equal(t, "permission denied: requires team admin", err.Error())

	_, err = c.Check(ctx, session, "t2", ReadRecords)
	var denied *DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "not a member of this team", denied.Reason)
	assert.Equal(t, "t2", denied.TeamID)

	_, err = c.Check(ctx, nil, "t1", ReadRecords)
	assert.True(t, IsDenied(err))

	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, "authorization denied", logs.All()[0].Message)
}
