package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestManagerLoginAndResume(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore(), time.Hour)

	sess, err := manager.Login(ctx, "opaque-token")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID())
	assert.Equal(t, "opaque-token", sess.Token())
	assert.True(t, sess.Authenticated())

	resumed, err := manager.Resume(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", resumed.Token())
}

func TestManagerLoginRejectsEmptyAndExpiredTokens(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore(), time.Hour)

	_, err := manager.Login(ctx, "")
	assert.Error(t, err)

	_, err = manager.Login(ctx, signedToken(t, time.Now().Add(-time.Minute)))
	assert.Error(t, err)
}

func TestManagerUsesEarlierJWTExpiry(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore(), 24*time.Hour)

	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	sess, err := manager.Login(ctx, signedToken(t, exp))
	require.NoError(t, err)
	assert.True(t, sess.ExpiresAt().Equal(exp))
}

func TestSessionTokenStopsAfterExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	manager := NewManager(store, time.Minute)

	sess, err := manager.Login(ctx, "opaque-token")
	require.NoError(t, err)

	later := time.Now().Add(2 * time.Minute)
	sess.now = func() time.Time { return later }
	assert.Empty(t, sess.Token())

	manager.now = func() time.Time { return later }
	store.now = func() time.Time { return later }
	_, err = manager.Resume(ctx, sess.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogoutClearsTokenAndStore(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore(), time.Hour)

	sess, err := manager.Login(ctx, "opaque-token")
	require.NoError(t, err)

	require.NoError(t, sess.Logout(ctx))
	assert.False(t, sess.Authenticated())

	_, err = manager.Resume(ctx, sess.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnonymousSession(t *testing.T) {
	sess := Anonymous()
	assert.Empty(t, sess.Token())
	assert.NoError(t, sess.Logout(context.Background()))

	var nilSession *Session
	assert.Empty(t, nilSession.Token())
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "")
	record := Record{
		ID:        "abc",
		Token:     "opaque-token",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, record))
	assert.True(t, mr.Exists("session:abc"))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, record.Token, loaded.Token)
	assert.True(t, record.ExpiresAt.Equal(loaded.ExpiresAt))

	mr.FastForward(2 * time.Hour)
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, record))
	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}
