package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/repository/connection"
	"github.com/sharetube/scrollfeed/internal/repository/session"
)

type OpenSessionParams struct {
	VideoID string
	Conn    connection.Conn
}

type OpenSessionResponse struct {
	SessionID string
}

// OpenSession starts a feed seeded by params.VideoID on params.Conn and requests
// its first page.
func (s *service) OpenSession(ctx context.Context, params *OpenSessionParams) (OpenSessionResponse, error) {
	if params.VideoID == "" {
		return OpenSessionResponse{}, ErrInvalidVideoID
	}

	sessionID := uuid.NewString()
	ctx = WithSessionID(ctx, sessionID)
	slog.InfoContext(ctx, "open session", "video_id", params.VideoID)

	unlock := s.lock(sessionID)
	defer unlock()

	state := feed.NewState(feed.VideoID(params.VideoID), s.cfg.Feed)
	effects, err := state.Start()
	if err != nil {
		return OpenSessionResponse{}, fmt.Errorf("failed to start feed: %w", err)
	}

	if err := s.save(ctx, sessionID, state); err != nil {
		return OpenSessionResponse{}, err
	}

	if err := s.connRepo.Add(params.Conn, sessionID); err != nil {
		s.sessionRepo.RemoveSession(ctx, sessionID)
		return OpenSessionResponse{}, fmt.Errorf("failed to register connection: %w", err)
	}

	s.send(ctx, sessionID, Output{Type: TypeSessionOpened, Payload: SessionOpenedPayload{
		SessionID: sessionID,
		VideoID:   state.Seed,
		Config:    state.Config,
	}})
	s.execute(ctx, sessionID, effects)
	s.refreshActiveSessions(ctx)

	return OpenSessionResponse{SessionID: sessionID}, nil
}

type DispatchParams struct {
	SessionID string
	Event     feed.Event
}

// Dispatch runs one event against the session to completion: the reducer, the
// snapshot, delivery of page effects and the start of backend calls.
func (s *service) Dispatch(ctx context.Context, params *DispatchParams) error {
	ctx = WithSessionID(ctx, params.SessionID)

	unlock := s.lock(params.SessionID)
	defer unlock()

	sess, err := s.sessionRepo.GetSession(ctx, params.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to load session: %w", err)
	}
	state := sess.State

	ev, err := s.prepare(ctx, state, params.Event)
	if err != nil {
		return err
	}

	effects, err := state.Apply(ev)
	if err != nil {
		return fmt.Errorf("failed to apply %T: %w", ev, err)
	}
	s.observe(state, ev)

	if err := s.save(ctx, params.SessionID, state); err != nil {
		return err
	}

	s.execute(ctx, params.SessionID, effects)

	return nil
}

// prepare fills in what the page could not tell: a stream that initialized without
// reporting its ladder, or with an empty one, gets the one from its manifest.
func (s *service) prepare(ctx context.Context, state *feed.State, ev feed.Event) (feed.Event, error) {
	si, ok := ev.(feed.StreamInitialized)
	if !ok || len(si.Ladder) > 0 || s.ladders == nil {
		return ev, nil
	}
	if si.Index < 0 || si.Index >= len(state.Players) {
		return ev, nil
	}

	videoID := state.Players[si.Index].VideoID
	reps, err := s.ladders.Ladder(ctx, string(videoID))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ladder for %s: %w", videoID, err)
	}

	si.Ladder = make([]feed.Quality, len(reps))
	for i, rep := range reps {
		si.Ladder[i] = feed.Quality{Height: rep.Height, Width: rep.Width, Bandwidth: rep.Bandwidth}
	}

	return si, nil
}

func (s *service) observe(state *feed.State, ev feed.Event) {
	switch ev := ev.(type) {
	case feed.Scrolled:
		s.metrics.IncNavigation(feed.Classify(ev.Offset, state.Config.ScrollBaseline).String())
	case feed.ScrollDown:
		s.metrics.IncNavigation(feed.DirectionDown.String())
	case feed.ScrollUp:
		s.metrics.IncNavigation(feed.DirectionUp.String())
	}
}

func (s *service) save(ctx context.Context, sessionID string, state *feed.State) error {
	if err := s.sessionRepo.SetSession(ctx, &session.SetSessionParams{
		SessionID: sessionID,
		State:     state,
		UpdatedAt: s.now(),
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// execute sends page effects in order and starts backend calls for the rest.
// Callers hold the session lock.
func (s *service) execute(ctx context.Context, sessionID string, effects []feed.Effect) {
	server, client := feed.SplitEffects(effects)
	s.deliver(ctx, sessionID, client)

	for _, e := range server {
		switch e := e.(type) {
		case feed.FetchPage:
			s.goAsync(ctx, func(ctx context.Context) { s.fetchPage(ctx, sessionID, e) })
		case feed.ReportView:
			s.goAsync(ctx, func(ctx context.Context) { s.reportView(ctx, sessionID, e.ID) })
		case feed.ReportLike:
			s.goAsync(ctx, func(ctx context.Context) { s.reportLike(ctx, sessionID, e.ID, e.Value) })
		}
	}
}

// goAsync runs fn detached from the caller's cancellation, bounded by the backend
// timeout.
func (s *service) goAsync(ctx context.Context, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.BackendTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// resolve feeds the outcome of a backend call back into the session.
func (s *service) resolve(ctx context.Context, sessionID string, ev feed.Event) {
	err := s.Dispatch(context.WithoutCancel(ctx), &DispatchParams{SessionID: sessionID, Event: ev})
	switch {
	case err == nil:
	case errors.Is(err, ErrSessionNotFound):
		slog.DebugContext(ctx, "session closed before result arrived", "event", fmt.Sprintf("%T", ev))
	default:
		slog.WarnContext(ctx, "failed to apply backend result", "event", fmt.Sprintf("%T", ev), "error", err)
	}
}

// Touch keeps an idle session alive while its viewer is still connected.
func (s *service) Touch(ctx context.Context, sessionID string) error {
	ctx = WithSessionID(ctx, sessionID)

	unlock := s.lock(sessionID)
	defer unlock()

	sess, err := s.sessionRepo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	return s.save(ctx, sessionID, sess.State)
}

// CloseSession drops the session and its connection.
func (s *service) CloseSession(ctx context.Context, sessionID string) error {
	ctx = WithSessionID(ctx, sessionID)
	slog.InfoContext(ctx, "close session")

	unlock := s.lock(sessionID)
	defer unlock()

	if err := s.connRepo.RemoveBySessionID(sessionID); err != nil && !errors.Is(err, connection.ErrNotFound) {
		slog.WarnContext(ctx, "failed to remove connection", "error", err)
	}

	err := s.sessionRepo.RemoveSession(ctx, sessionID)
	s.refreshActiveSessions(ctx)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to remove session: %w", err)
	}

	return nil
}
