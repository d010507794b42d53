package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/repository/session"
)

type repo struct {
	sessions       map[string][]byte
	updatedAt      map[string]time.Time
	expireDuration time.Duration
	now            func() time.Time
	mu             sync.RWMutex
}

// NewRepo keeps snapshots in process memory. Sessions idle longer than
// expireDuration are treated as gone; zero disables expiry.
func NewRepo(expireDuration time.Duration) *repo {
	return &repo{
		sessions:       make(map[string][]byte),
		updatedAt:      make(map[string]time.Time),
		expireDuration: expireDuration,
		now:            time.Now,
	}
}

func (r *repo) expired(id string) bool {
	if r.expireDuration <= 0 {
		return false
	}
	return r.now().Sub(r.updatedAt[id]) > r.expireDuration
}

// SetSession stores a copy of the state so later mutations by the caller do not
// leak into the store.
func (r *repo) SetSession(ctx context.Context, params *session.SetSessionParams) error {
	data, err := json.Marshal(params.State)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[params.SessionID] = data
	r.updatedAt[params.SessionID] = params.UpdatedAt

	return nil
}

func (r *repo) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	r.mu.RLock()
	data, ok := r.sessions[sessionID]
	updatedAt := r.updatedAt[sessionID]
	expired := ok && r.expired(sessionID)
	r.mu.RUnlock()

	if !ok || expired {
		return session.Session{}, session.ErrSessionNotFound
	}

	var state feed.State
	if err := json.Unmarshal(data, &state); err != nil {
		return session.Session{}, fmt.Errorf("failed to decode session state: %w", err)
	}

	return session.Session{ID: sessionID, State: &state, UpdatedAt: updatedAt}, nil
}

func (r *repo) RemoveSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return session.ErrSessionNotFound
	}

	delete(r.sessions, sessionID)
	delete(r.updatedAt, sessionID)

	return nil
}

func (r *repo) CountSessions(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.sessions {
		if r.expired(id) {
			delete(r.sessions, id)
			delete(r.updatedAt, id)
		}
	}

	return len(r.sessions), nil
}
