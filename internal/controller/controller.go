package controller

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/platform/metrics"
	"github.com/sharetube/scrollfeed/internal/service/session"
	"github.com/sharetube/scrollfeed/pkg/validator"
	"github.com/sharetube/scrollfeed/pkg/wsrouter"
)

type iFeedService interface {
	OpenSession(context.Context, *session.OpenSessionParams) (session.OpenSessionResponse, error)
	Dispatch(context.Context, *session.DispatchParams) error
	Touch(ctx context.Context, sessionID string) error
	CloseSession(ctx context.Context, sessionID string) error
	SendError(ctx context.Context, sessionID string, message string, details any)
	ActiveSessions(context.Context) (int, error)
}

type Config struct {
	// MediaDir holds the DASH manifests and segments served under MediaPrefix.
	MediaDir    string
	MediaPrefix string
	Feed        feed.Config
}

type controller struct {
	feedService iFeedService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
	metrics     *metrics.Metrics
	wsmux       *wsrouter.WSRouter
	page        *template.Template
	cfg         Config
}

func NewController(feedService iFeedService, m *metrics.Metrics, logger *slog.Logger, cfg Config) *controller {
	if cfg.MediaPrefix == "" {
		cfg.MediaPrefix = feed.DefaultMediaPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &controller{
		feedService: feedService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
		metrics:  m,
		page:     template.Must(template.New("feed").Parse(feedPage)),
		cfg:      cfg,
	}
	c.wsmux = c.getWSRouter()

	return c
}
