package session

import (
	"context"
	"log/slog"

	"github.com/sharetube/scrollfeed/pkg/ctxlogger"
)

type ctxKey string

const sessionIDKey ctxKey = "session_id"

// WithSessionID tags ctx and its log records with the session id, once.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if id, ok := ctx.Value(sessionIDKey).(string); ok && id == sessionID {
		return ctx
	}
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return ctxlogger.AppendCtx(ctx, slog.String("session_id", sessionID))
}
