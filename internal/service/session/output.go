package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/repository/connection"
)

const (
	TypeSessionOpened = "SESSION_OPENED"
	TypeError         = "ERROR"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type SessionOpenedPayload struct {
	SessionID string       `json:"session_id"`
	VideoID   feed.VideoID `json:"video_id"`
	Config    feed.Config  `json:"config"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (s *service) send(ctx context.Context, sessionID string, out Output) {
	if err := s.connRepo.Send(sessionID, out); err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			slog.DebugContext(ctx, "no connection for session", "type", out.Type)
			return
		}
		slog.WarnContext(ctx, "failed to send output", "type", out.Type, "error", err)
	}
}

func (s *service) deliver(ctx context.Context, sessionID string, effects []feed.Effect) {
	for _, e := range effects {
		s.send(ctx, sessionID, Output{Type: e.Kind(), Payload: e})
	}
}

// SendError tells the viewer that one of its messages was rejected.
func (s *service) SendError(ctx context.Context, sessionID string, message string, details any) {
	s.send(ctx, sessionID, Output{Type: TypeError, Payload: ErrorPayload{Message: message, Details: details}})
}
