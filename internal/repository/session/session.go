package session

import (
	"errors"
	"time"

	"github.com/sharetube/scrollfeed/internal/feed"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

type Session struct {
	ID        string      `json:"id"`
	State     *feed.State `json:"state"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type SetSessionParams struct {
	SessionID string
	State     *feed.State
	UpdatedAt time.Time
}
