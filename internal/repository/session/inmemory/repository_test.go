package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/repository/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo(t *testing.T) {
	r := NewRepo(time.Minute)
	ctx := context.Background()
	now := time.Now()
	r.now = func() time.Time { return now }

	st := feed.NewState("seed", feed.Config{})
	require.NoError(t, r.SetSession(ctx, &session.SetSessionParams{SessionID: "s1", State: st, UpdatedAt: now}))

	// the stored snapshot is independent of the caller's state
	st.Seed = "changed"
	got, err := r.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, feed.VideoID("seed"), got.State.Seed)

	n, err := r.CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, r.RemoveSession(ctx, "s1"))
	_, err = r.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.ErrorIs(t, r.RemoveSession(ctx, "s1"), session.ErrSessionNotFound)
}

func TestRepo_expiry(t *testing.T) {
	r := NewRepo(time.Minute)
	ctx := context.Background()
	now := time.Now()
	r.now = func() time.Time { return now }

	require.NoError(t, r.SetSession(ctx, &session.SetSessionParams{
		SessionID: "s1",
		State:     feed.NewState("seed", feed.Config{}),
		UpdatedAt: now,
	}))

	now = now.Add(2 * time.Minute)
	_, err := r.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	n, err := r.CountSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
