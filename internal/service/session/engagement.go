package session

import (
	"context"
	"log/slog"

	"github.com/sharetube/scrollfeed/internal/backend"
	"github.com/sharetube/scrollfeed/internal/feed"
)

func (s *service) fetchPage(ctx context.Context, sessionID string, req feed.FetchPage) {
	videos, err := s.backend.Videos(ctx, &backend.VideosParams{
		Count:        req.Count,
		VideoID:      string(req.Seed),
		ReadyToWatch: true,
	})
	s.metrics.ObservePageFetch(err)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch videos", "seq", req.Seq, "initial", req.Initial, "error", err)
		s.resolve(ctx, sessionID, feed.PageFailed{Seq: req.Seq, Err: err})
		return
	}

	ids := make([]feed.VideoID, len(videos))
	for i, v := range videos {
		ids[i] = feed.VideoID(v.ID)
	}
	slog.DebugContext(ctx, "fetched videos", "seq", req.Seq, "count", len(ids))
	s.resolve(ctx, sessionID, feed.PageLoaded{Seq: req.Seq, IDs: ids})
}

// reportView is fire-and-forget: a failure is logged and counted, never retried
// and never shown to the viewer.
func (s *service) reportView(ctx context.Context, sessionID string, id feed.VideoID) {
	err := s.backend.View(ctx, string(id))
	s.metrics.ObserveReport("view", err)
	if err != nil {
		slog.WarnContext(ctx, "failed to report view", "video_id", id, "error", err)
	} else {
		slog.DebugContext(ctx, "viewed", "video_id", id)
	}
	s.resolve(ctx, sessionID, feed.ViewReported{ID: id, Err: err})
}

func (s *service) reportLike(ctx context.Context, sessionID string, id feed.VideoID, value bool) {
	err := s.backend.Like(ctx, string(id), value)
	s.metrics.ObserveReport("like", err)
	if err != nil {
		slog.WarnContext(ctx, "failed to report like", "video_id", id, "value", value, "error", err)
	} else {
		slog.DebugContext(ctx, "liked", "video_id", id, "value", value)
	}
	s.resolve(ctx, sessionID, feed.LikeReported{ID: id, Value: value, Err: err})
}
