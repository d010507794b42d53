package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/repository/session"
)

const activeSessionsKey = "sessions:active"

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
	}
}

func (r repo) getSessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

func (r repo) SetSession(ctx context.Context, params *session.SetSessionParams) error {
	data, err := json.Marshal(session.Session{
		ID:        params.SessionID,
		State:     params.State,
		UpdatedAt: params.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	pipe := r.rc.TxPipeline()
	pipe.Set(ctx, r.getSessionKey(params.SessionID), data, r.expireDuration)
	pipe.ZAdd(ctx, activeSessionsKey, redis.Z{
		Score:  float64(params.UpdatedAt.Unix()),
		Member: params.SessionID,
	})

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (r repo) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	data, err := r.rc.Get(ctx, r.getSessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return session.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.State == nil {
		s.State = &feed.State{}
	}

	return s, nil
}

func (r repo) RemoveSession(ctx context.Context, sessionID string) error {
	pipe := r.rc.TxPipeline()
	del := pipe.Del(ctx, r.getSessionKey(sessionID))
	pipe.ZRem(ctx, activeSessionsKey, sessionID)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	if del.Val() == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}

// CountSessions drops index entries whose snapshot has outlived the TTL, then
// counts the rest.
func (r repo) CountSessions(ctx context.Context) (int, error) {
	if r.expireDuration > 0 {
		cutoff := time.Now().Add(-r.expireDuration).Unix()
		if err := r.rc.ZRemRangeByScore(ctx, activeSessionsKey, "-inf", "("+strconv.FormatInt(cutoff, 10)).Err(); err != nil {
			return 0, fmt.Errorf("failed to prune sessions: %w", err)
		}
	}

	n, err := r.rc.ZCard(ctx, activeSessionsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return int(n), nil
}
