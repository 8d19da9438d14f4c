package store

import (
	"context"
	"testing"
	"time"

	"beneficiary-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_RedisRoundTrip(t *testing.T) {
	mr, kv := setupTestRedis(t)
	ctx := context.Background()
	sessions := NewSessionStore(kv, time.Hour)

	sess := &domain.Session{
		Token:     "tok-1",
		UserID:    "u1",
		Email:     "worker@example.org",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, sessions.Save(ctx, sess))
	assert.True(t, mr.Exists("session:tok-1"))
	assert.Equal(t, time.Hour, mr.TTL("session:tok-1"))

	got, err := sessions.Load(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "worker@example.org", got.Email)

	require.NoError(t, sessions.Delete(ctx, "tok-1"))
	_, err = sessions.Load(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_RejectsExpiredAndGarbage(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	sessions := NewSessionStore(kv, time.Hour)

	_, err := sessions.Load(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, kv.Set(ctx, "session:bad", "{not json", 0))
	_, err = sessions.Load(ctx, "bad")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	stale, _ := time.Parse(time.RFC3339, "2020-01-01T00:00:00Z")
	require.NoError(t, kv.Set(ctx, "session:old", `{"token":"old","user_id":"u1","expires_at":"`+stale.Format(time.RFC3339)+`"}`, 0))
	_, err = sessions.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = kv.Get(ctx, "session:old")
	assert.ErrorIs(t, err, ErrMiss)
}
