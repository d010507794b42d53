package feed

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const (
	DefaultPageSize         = 10
	DefaultPrefetchDistance = 5
	DefaultScrollBaseline   = 10
	DefaultMediaPrefix      = "/static/media"

	playPathPrefix = "/play/"
)

// VideoID is an opaque video identifier, unique per video.
type VideoID string

type Config struct {
	PageSize         int    `json:"page_size"`
	PrefetchDistance int    `json:"prefetch_distance"`
	ScrollBaseline   int    `json:"scroll_baseline"`
	MediaPrefix      string `json:"media_prefix"`
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PrefetchDistance <= 0 {
		c.PrefetchDistance = DefaultPrefetchDistance
	}
	if c.ScrollBaseline <= 0 {
		c.ScrollBaseline = DefaultScrollBaseline
	}
	if c.MediaPrefix == "" {
		c.MediaPrefix = DefaultMediaPrefix
	}
	return c
}

// Quality is one rendition of a stream's quality ladder.
type Quality struct {
	Index     int   `json:"index"`
	Height    int   `json:"height"`
	Width     int   `json:"width"`
	Bandwidth int64 `json:"bandwidth"`
}

func (q Quality) Label() string {
	return fmt.Sprintf("%dp", q.Height)
}

type QualityOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Selector mirrors the page's manual quality selector. Source is the index of the
// player whose ladder populated it last, which is not necessarily the current one.
type Selector struct {
	Options []QualityOption `json:"options"`
	Source  int             `json:"source"`
}

// Player is one streaming-player instance bound to a hidden media element.
// Players are created once and live for the whole session.
type Player struct {
	Index             int       `json:"index"`
	VideoID           VideoID   `json:"video_id"`
	ManifestURL       string    `json:"manifest_url"`
	Visible           bool      `json:"visible"`
	Paused            bool      `json:"paused"`
	CurrentTime       float64   `json:"current_time"`
	Duration          float64   `json:"duration"`
	MetadataLoaded    bool      `json:"metadata_loaded"`
	Ladder            []Quality `json:"ladder,omitempty"`
	LadderKnown       bool      `json:"ladder_known"`
	Quality           int       `json:"quality"`
	AutoSwitchBitrate bool      `json:"auto_switch_bitrate"`
	AwaitingSeekBind  bool      `json:"awaiting_seek_bind"`
}

// PlayPath is the browser path pushed into history when id becomes current.
func PlayPath(id VideoID) string {
	return playPathPrefix + url.PathEscape(string(id))
}

// ManifestURL returns the location of the per-video manifest, {prefix}/{id}/{id}.mpd.
func ManifestURL(prefix string, id VideoID) string {
	escaped := url.PathEscape(string(id))
	return path.Join(prefix, escaped, escaped+".mpd")
}

// VideoIDFromPath returns the final segment of a URL path. A trailing slash yields
// an empty id.
func VideoIDFromPath(p string) VideoID {
	segments := strings.Split(p, "/")
	last := segments[len(segments)-1]
	if unescaped, err := url.PathUnescape(last); err == nil {
		last = unescaped
	}
	return VideoID(last)
}
