package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zencoder/go-dash/v3/mpd"
)

var (
	ErrInvalidVideoID   = errors.New("invalid video id")
	ErrManifestNotFound = errors.New("manifest not found")
)

// Representation is one rung of a video's quality ladder.
type Representation struct {
	Height    int
	Width     int
	Bandwidth int64
}

// Reader resolves quality ladders from the DASH manifests under a media directory,
// laid out as {root}/{id}/{id}.mpd. Parsed ladders are cached; manifests are
// written once by the transcoder and never change.
type Reader struct {
	root  string
	mu    sync.RWMutex
	cache map[string][]Representation
}

func NewReader(root string) *Reader {
	return &Reader{
		root:  root,
		cache: make(map[string][]Representation),
	}
}

func (r *Reader) Path(videoID string) (string, error) {
	if videoID == "" || videoID == "." || videoID == ".." || strings.ContainsAny(videoID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID)
	}
	return filepath.Join(r.root, videoID, videoID+".mpd"), nil
}

// Ladder returns the video representations that carry a height, in manifest order.
func (r *Reader) Ladder(ctx context.Context, videoID string) ([]Representation, error) {
	r.mu.RLock()
	ladder, ok := r.cache[videoID]
	r.mu.RUnlock()
	if ok {
		return ladder, nil
	}

	path, err := r.Path(videoID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, videoID)
		}
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	m, err := mpd.ReadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", videoID, err)
	}

	ladder = videoLadder(m)

	r.mu.Lock()
	r.cache[videoID] = ladder
	r.mu.Unlock()

	return ladder, nil
}

func videoLadder(m *mpd.MPD) []Representation {
	ladder := make([]Representation, 0)
	for _, period := range m.Periods {
		if period == nil {
			continue
		}
		for _, as := range period.AdaptationSets {
			if as == nil {
				continue
			}
			for _, rep := range as.Representations {
				if rep == nil || rep.Height == nil {
					continue
				}
				q := Representation{Height: int(*rep.Height)}
				if rep.Width != nil {
					q.Width = int(*rep.Width)
				}
				if rep.Bandwidth != nil {
					q.Bandwidth = *rep.Bandwidth
				}
				ladder = append(ladder, q)
			}
		}
	}

	return ladder
}
