package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sharetube/scrollfeed/internal/backend"
	"github.com/sharetube/scrollfeed/internal/controller"
	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/manifest"
	"github.com/sharetube/scrollfeed/internal/platform/metrics"
	connInmemory "github.com/sharetube/scrollfeed/internal/repository/connection/inmemory"
	sessionRepository "github.com/sharetube/scrollfeed/internal/repository/session"
	sessionInmemory "github.com/sharetube/scrollfeed/internal/repository/session/inmemory"
	sessionRedis "github.com/sharetube/scrollfeed/internal/repository/session/redis"
	"github.com/sharetube/scrollfeed/internal/service/session"
	"github.com/sharetube/scrollfeed/pkg/ctxlogger"
	"github.com/sharetube/scrollfeed/pkg/redisclient"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type AppConfig struct {
	Host             string        `json:"host"`
	Port             int           `json:"port"`
	LogLevel         string        `json:"log_level"`
	BackendURL       string        `json:"backend_url"`
	BackendTimeout   time.Duration `json:"backend_timeout"`
	MediaDir         string        `json:"media_dir"`
	PageSize         int           `json:"page_size"`
	PrefetchDistance int           `json:"prefetch_distance"`
	ScrollBaseline   int           `json:"scroll_baseline"`
	SessionStore     string        `json:"session_store"`
	SessionTTL       time.Duration `json:"session_ttl"`
	RedisPort        int           `json:"redis_port"`
	RedisHost        string        `json:"redis_host"`
	RedisPassword    string        `json:"-"`
	RedisDB          int           `json:"redis_db"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if u, err := url.Parse(cfg.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend url must be an absolute url")
	}
	if cfg.MediaDir == "" {
		return fmt.Errorf("media dir must be set")
	}
	if cfg.PageSize < 1 {
		return fmt.Errorf("page size must be greater than 0")
	}
	if cfg.PrefetchDistance < 0 {
		return fmt.Errorf("prefetch distance must not be negative")
	}
	if cfg.ScrollBaseline < 1 {
		return fmt.Errorf("scroll baseline must be greater than 0")
	}
	switch cfg.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("session store must be %q or %q", SessionStoreMemory, SessionStoreRedis)
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be greater than 0")
	}
	return nil
}

func (cfg *AppConfig) feedConfig() feed.Config {
	return feed.Config{
		PageSize:         cfg.PageSize,
		PrefetchDistance: cfg.PrefetchDistance,
		ScrollBaseline:   cfg.ScrollBaseline,
		MediaPrefix:      feed.DefaultMediaPrefix,
	}
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

type iSessionRepo interface {
	SetSession(context.Context, *sessionRepository.SetSessionParams) error
	GetSession(context.Context, string) (sessionRepository.Session, error)
	RemoveSession(context.Context, string) error
	CountSessions(context.Context) (int, error)
}

type feedServer struct {
	handler http.Handler
	wait    func()
	close   func()
}

func newFeedServer(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (*feedServer, error) {
	closeFn := func() {}

	var sessionRepo iSessionRepo
	switch cfg.SessionStore {
	case SessionStoreRedis:
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Port:     cfg.RedisPort,
			Host:     cfg.RedisHost,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		closeFn = func() { rc.Close() }
		sessionRepo = sessionRedis.NewRepo(rc, cfg.SessionTTL)
	default:
		sessionRepo = sessionInmemory.NewRepo(cfg.SessionTTL)
	}

	m := metrics.New()
	feedService := session.NewService(
		sessionRepo,
		connInmemory.NewRepo(),
		backend.NewClient(cfg.BackendURL, backend.WithTimeout(cfg.BackendTimeout)),
		manifest.NewReader(cfg.MediaDir),
		m,
		session.Config{
			Feed:           cfg.feedConfig(),
			BackendTimeout: cfg.BackendTimeout,
		},
	)
	c := controller.NewController(feedService, m, logger, controller.Config{
		MediaDir:    cfg.MediaDir,
		MediaPrefix: feed.DefaultMediaPrefix,
		Feed:        cfg.feedConfig(),
	})

	return &feedServer{
		handler: c.GetMux(),
		wait:    feedService.Wait,
		close:   closeFn,
	}, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	slog.SetDefault(logger)

	fs, err := newFeedServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer fs.close()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: fs.handler}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	slog.InfoContext(serverCtx, "starting server", "address", server.Addr, "session_store", cfg.SessionStore)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-serverCtx.Done()
	// let in-flight view and like reports finish
	fs.wait()

	return nil
}
