package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/service/session"
	"github.com/sharetube/scrollfeed/pkg/validator"
)

type EmptyInput struct{}

type invalidInputError struct {
	errs []validator.ValidationError
}

func (e *invalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %d field(s) rejected", len(e.errs))
}

func (c controller) validateInput(input any) error {
	if errs, ok := c.validate.Validate(input); !ok {
		return &invalidInputError{errs: errs}
	}

	return nil
}

func (c controller) dispatch(ctx context.Context, ev feed.Event) error {
	if err := c.feedService.Dispatch(ctx, &session.DispatchParams{
		SessionID: c.getSessionIdFromCtx(ctx),
		Event:     ev,
	}); err != nil {
		return fmt.Errorf("failed to dispatch: %w", err)
	}

	return nil
}

// handleWSError reports a rejected message back to the viewer and keeps the
// connection open, unless the session itself is gone.
func (c controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) error {
	if errors.Is(err, session.ErrSessionNotFound) {
		return err
	}

	c.logger.InfoContext(ctx, "websocket message rejected", "error", err)

	var invalid *invalidInputError
	if errors.As(err, &invalid) {
		c.feedService.SendError(ctx, c.getSessionIdFromCtx(ctx), "invalid input", invalid.errs)
		return nil
	}

	c.feedService.SendError(ctx, c.getSessionIdFromCtx(ctx), err.Error(), nil)
	return nil
}

// handleAlive keeps a paused viewer's session from expiring while the page is open.
func (c controller) handleAlive(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	if err := c.feedService.Touch(ctx, c.getSessionIdFromCtx(ctx)); err != nil {
		return fmt.Errorf("failed to keep session alive: %w", err)
	}

	return nil
}

type ScrollInput struct {
	Offset *int `json:"offset" validate:"required"`
}

func (c controller) handleScroll(ctx context.Context, _ *websocket.Conn, input ScrollInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	return c.dispatch(ctx, feed.Scrolled{Offset: *input.Offset})
}

func (c controller) handleTogglePlay(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return c.dispatch(ctx, feed.TogglePlay{})
}

type SeekInput struct {
	Position *float64 `json:"position" validate:"required,gte=0"`
}

func (c controller) handleSeek(ctx context.Context, _ *websocket.Conn, input SeekInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	return c.dispatch(ctx, feed.Seek{Position: *input.Position})
}

type ProgressInput struct {
	Index *int     `json:"index" validate:"required,gte=0"`
	Time  *float64 `json:"time" validate:"required,gte=0"`
}

func (c controller) handleProgress(ctx context.Context, _ *websocket.Conn, input ProgressInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	return c.dispatch(ctx, feed.Progress{Index: *input.Index, Time: *input.Time})
}

type QualityInput struct {
	Height    int   `json:"height" validate:"gt=0"`
	Width     int   `json:"width" validate:"gte=0"`
	Bandwidth int64 `json:"bandwidth" validate:"gte=0"`
}

type StreamInitializedInput struct {
	Index *int `json:"index" validate:"required,gte=0"`
	// Qualities is the player's video bitrate list. When absent or empty, the ladder
	// is read from the video's manifest.
	Qualities []QualityInput `json:"qualities" validate:"omitempty,dive"`
}

func (c controller) handleStreamInitialized(ctx context.Context, _ *websocket.Conn, input StreamInitializedInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	var ladder []feed.Quality
	if len(input.Qualities) > 0 {
		ladder = make([]feed.Quality, len(input.Qualities))
		for i, q := range input.Qualities {
			ladder[i] = feed.Quality{Height: q.Height, Width: q.Width, Bandwidth: q.Bandwidth}
		}
	}

	return c.dispatch(ctx, feed.StreamInitialized{Index: *input.Index, Ladder: ladder})
}

type MetadataLoadedInput struct {
	Index    *int     `json:"index" validate:"required,gte=0"`
	Duration *float64 `json:"duration" validate:"required,gte=0"`
}

func (c controller) handleMetadataLoaded(ctx context.Context, _ *websocket.Conn, input MetadataLoadedInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	return c.dispatch(ctx, feed.MetadataLoaded{Index: *input.Index, Duration: *input.Duration})
}

type QualityChangedInput struct {
	Level *int `json:"level" validate:"required,gte=0"`
}

func (c controller) handleQualityChanged(ctx context.Context, _ *websocket.Conn, input QualityChangedInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	return c.dispatch(ctx, feed.QualityChanged{Level: *input.Level})
}

type LikeInput struct {
	Value *bool `json:"value" validate:"required"`
}

func (c controller) handleLike(ctx context.Context, _ *websocket.Conn, input LikeInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	return c.dispatch(ctx, feed.LikePressed{Value: *input.Value})
}
