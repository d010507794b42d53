package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/repository/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T, ttl time.Duration) (*repo, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })
	return NewRepo(rc, ttl), s
}

func loadedState(t *testing.T) *feed.State {
	t.Helper()
	st := feed.NewState("seed", feed.Config{})
	_, err := st.Start()
	require.NoError(t, err)
	_, err = st.Apply(feed.PageLoaded{Seq: 1, IDs: []feed.VideoID{"a", "seed", "b"}})
	require.NoError(t, err)
	return st
}

func TestSetGetSession(t *testing.T) {
	r, _ := newRepo(t, time.Hour)
	ctx := context.Background()
	st := loadedState(t)
	now := time.Now().Truncate(time.Second)

	require.NoError(t, r.SetSession(ctx, &session.SetSessionParams{
		SessionID: "abc",
		State:     st,
		UpdatedAt: now,
	}))

	got, err := r.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.True(t, now.Equal(got.UpdatedAt))
	assert.Equal(t, st.Videos, got.State.Videos)
	assert.Equal(t, st.Players, got.State.Players)
	assert.Equal(t, st.Current, got.State.Current)
	assert.True(t, got.State.Loaded)

	n, err := r.CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetSession_notFound(t *testing.T) {
	r, _ := newRepo(t, time.Hour)
	_, err := r.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionExpires(t *testing.T) {
	r, s := newRepo(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, r.SetSession(ctx, &session.SetSessionParams{
		SessionID: "abc",
		State:     feed.NewState("seed", feed.Config{}),
		UpdatedAt: time.Now(),
	}))

	assert.True(t, s.Exists("session:abc"))
	s.FastForward(2 * time.Minute)

	_, err := r.GetSession(ctx, "abc")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestRemoveSession(t *testing.T) {
	r, s := newRepo(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, r.SetSession(ctx, &session.SetSessionParams{
		SessionID: "abc",
		State:     feed.NewState("seed", feed.Config{}),
		UpdatedAt: time.Now(),
	}))

	require.NoError(t, r.RemoveSession(ctx, "abc"))
	assert.False(t, s.Exists("session:abc"))
	assert.ErrorIs(t, r.RemoveSession(ctx, "abc"), session.ErrSessionNotFound)

	n, err := r.CountSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountSessions_prunesStale(t *testing.T) {
	r, _ := newRepo(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, r.SetSession(ctx, &session.SetSessionParams{
		SessionID: "old",
		State:     feed.NewState("seed", feed.Config{}),
		UpdatedAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, r.SetSession(ctx, &session.SetSessionParams{
		SessionID: "new",
		State:     feed.NewState("seed", feed.Config{}),
		UpdatedAt: time.Now(),
	}))

	n, err := r.CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
