package service

import (
	"context"
	"testing"

	"beneficiary-data/internal/authz"
	"beneficiary-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormLinkService_PublicURL(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "https://aid.example.org/apply?link=l-1&team=t-1", f.links.PublicURL("t-1", "l-1"))
	assert.Equal(t, "https://aid.example.org/apply?team=t-1", f.links.PublicURL("t-1", ""))
	assert.Equal(t, "https://aid.example.org/apply?team=a+b%26c", f.links.PublicURL("a b&c", ""))
}

func TestFormLinkService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, teamID := f.newTeam(t, "admin@example.org")
	member := f.addMember(t, admin, teamID, "bob@example.org")

	_, err := f.links.Create(ctx, member, teamID, "Walk-in")
	assert.True(t, authz.IsDenied(err), "members cannot manage links")
	_, err = f.links.Create(ctx, admin, teamID, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	l, err := f.links.Create(ctx, admin, teamID, "Walk-in")
	require.NoError(t, err)
	assert.True(t, l.Active)
	assert.Equal(t, f.links.PublicURL(teamID, l.LinkID), l.URL)

	links, err := f.links.List(ctx, member, teamID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, l.URL, links[0].URL)

	l, err = f.links.Rename(ctx, admin, teamID, l.LinkID, "Outreach")
	require.NoError(t, err)
	assert.Equal(t, "Outreach", l.Name)
	l, err = f.links.SetActive(ctx, admin, teamID, l.LinkID, false)
	require.NoError(t, err)
	assert.False(t, l.Active)

	got, err := f.links.Get(ctx, member, teamID, l.LinkID)
	require.NoError(t, err)
	assert.Equal(t, "Outreach", got.Name)
	assert.False(t, got.Active)

	require.NoError(t, f.links.Delete(ctx, admin, teamID, l.LinkID))
	_, err = f.links.Get(ctx, admin, teamID, l.LinkID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
