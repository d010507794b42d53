package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sharetube/scrollfeed/internal/backend"
	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/manifest"
	"github.com/sharetube/scrollfeed/internal/repository/connection"
	"github.com/sharetube/scrollfeed/internal/repository/session"
)

const defaultBackendTimeout = 10 * time.Second

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidVideoID  = errors.New("invalid video id")
)

type iSessionRepo interface {
	SetSession(context.Context, *session.SetSessionParams) error
	GetSession(context.Context, string) (session.Session, error)
	RemoveSession(context.Context, string) error
	CountSessions(context.Context) (int, error)
}

type iConnRepo interface {
	Add(connection.Conn, string) error
	RemoveBySessionID(string) error
	Send(string, any) error
	Count() int
}

type iBackend interface {
	Videos(context.Context, *backend.VideosParams) ([]backend.Video, error)
	View(ctx context.Context, id string) error
	Like(ctx context.Context, id string, value bool) error
}

type iLadderResolver interface {
	Ladder(ctx context.Context, videoID string) ([]manifest.Representation, error)
}

type iMetrics interface {
	SetActiveSessions(n int)
	SetOpenConnections(n int)
	IncNavigation(direction string)
	ObservePageFetch(err error)
	ObserveReport(kind string, err error)
}

type Config struct {
	Feed feed.Config
	// BackendTimeout bounds each asynchronous backend call.
	BackendTimeout time.Duration
}

type service struct {
	sessionRepo iSessionRepo
	connRepo    iConnRepo
	backend     iBackend
	ladders     iLadderResolver
	metrics     iMetrics
	cfg         Config
	now         func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sessionLock
	wg      sync.WaitGroup
}

func NewService(sessionRepo iSessionRepo, connRepo iConnRepo, backend iBackend, ladders iLadderResolver, metrics iMetrics, cfg Config) *service {
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = defaultBackendTimeout
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &service{
		sessionRepo: sessionRepo,
		connRepo:    connRepo,
		backend:     backend,
		ladders:     ladders,
		metrics:     metrics,
		cfg:         cfg,
		now:         time.Now,
		locks:       make(map[string]*sessionLock),
	}
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lock serializes everything that touches one session, the way a page's event
// loop runs one handler at a time. The entry is dropped once nobody holds or
// waits for it.
func (s *service) lock(sessionID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.locksMu.Unlock()
	}
}

// Wait blocks until in-flight backend calls have finished.
func (s *service) Wait() {
	s.wg.Wait()
}

func (s *service) ActiveSessions(ctx context.Context) (int, error) {
	return s.sessionRepo.CountSessions(ctx)
}

func (s *service) refreshActiveSessions(ctx context.Context) {
	if n, err := s.sessionRepo.CountSessions(ctx); err == nil {
		s.metrics.SetActiveSessions(n)
	}
	s.metrics.SetOpenConnections(s.connRepo.Count())
}

type noopMetrics struct{}

func (noopMetrics) SetActiveSessions(int)       {}
func (noopMetrics) SetOpenConnections(int)      {}
func (noopMetrics) IncNavigation(string)        {}
func (noopMetrics) ObservePageFetch(error)      {}
func (noopMetrics) ObserveReport(string, error) {}
