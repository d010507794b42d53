package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/service/session"
	"github.com/sharetube/scrollfeed/pkg/rest"
)

const videoIDRule = "required,max=128,excludesall=/\\"

type feedPageData struct {
	VideoID        string
	ScrollBaseline int
	MediaPrefix    string
}

func (c controller) getVideoID(r *http.Request) (string, error) {
	videoID := chi.URLParam(r, "video-id")
	if err := c.validate.Var(videoID, videoIDRule); err != nil {
		return "", err
	}

	return videoID, nil
}

func (c controller) getFeedPage(w http.ResponseWriter, r *http.Request) {
	videoID, err := c.getVideoID(r)
	if err != nil {
		c.logger.DebugContext(r.Context(), "invalid video id", "error", err)
		rest.WriteError(w, http.StatusBadRequest, "invalid video id")
		return
	}

	cfg := c.cfg.Feed
	if cfg.ScrollBaseline == 0 {
		cfg.ScrollBaseline = feed.DefaultScrollBaseline
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.page.Execute(w, feedPageData{
		VideoID:        videoID,
		ScrollBaseline: cfg.ScrollBaseline,
		MediaPrefix:    c.cfg.MediaPrefix,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to render feed page", "error", err)
	}
}

// serveFeed upgrades to a websocket and runs one feed session on it until the
// viewer goes away.
func (c controller) serveFeed(w http.ResponseWriter, r *http.Request) {
	videoID, err := c.getVideoID(r)
	if err != nil {
		c.logger.DebugContext(r.Context(), "invalid video id", "error", err)
		rest.WriteError(w, http.StatusBadRequest, "invalid video id")
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	openResp, err := c.feedService.OpenSession(r.Context(), &session.OpenSessionParams{
		VideoID: videoID,
		Conn:    conn,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to open session", "error", err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "failed to open session"))
		conn.Close()
		return
	}
	ctx := context.WithValue(r.Context(), sessionIdCtxKey, openResp.SessionID)
	ctx = session.WithSessionID(ctx, openResp.SessionID)
	defer c.disconnect(ctx, openResp.SessionID)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) || errors.Is(err, context.Canceled) {
			c.logger.DebugContext(ctx, "connection closed", "error", err)
			return
		}
		c.logger.InfoContext(ctx, "failed to serve conn", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, sessionID string) {
	if err := c.feedService.CloseSession(context.WithoutCancel(ctx), sessionID); err != nil {
		c.logger.DebugContext(ctx, "failed to close session", "error", err)
	}
}
