package controller

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sharetube/scrollfeed/internal/platform/metrics"
	"github.com/sharetube/scrollfeed/pkg/rest"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(metrics.RequestMiddleware(c.metrics))
	r.Use(cors.AllowAll().Handler)

	r.Get("/play/{video-id}", c.getFeedPage)

	mediaPrefix := strings.TrimRight(c.cfg.MediaPrefix, "/")
	r.Handle(mediaPrefix+"/*", http.StripPrefix(mediaPrefix+"/", http.FileServer(http.Dir(c.cfg.MediaDir))))

	r.Handle("/metrics", c.metrics.Handler(c.refreshGauges))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", c.healthz)
		r.Route("/ws", func(r chi.Router) {
			r.Get("/feed/{video-id}", c.serveFeed)
		})
	})

	return r
}

func (c controller) refreshGauges() {
	if n, err := c.feedService.ActiveSessions(context.Background()); err == nil {
		c.metrics.SetActiveSessions(n)
	}
}

func (c controller) healthz(w http.ResponseWriter, r *http.Request) {
	n, err := c.feedService.ActiveSessions(r.Context())
	if err != nil {
		c.logger.WarnContext(r.Context(), "session store unavailable", "error", err)
		rest.WriteError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok", "active_sessions": n})
}
