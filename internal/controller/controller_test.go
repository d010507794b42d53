package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/scrollfeed/internal/backend"
	"github.com/sharetube/scrollfeed/internal/feed"
	"github.com/sharetube/scrollfeed/internal/manifest"
	"github.com/sharetube/scrollfeed/internal/platform/metrics"
	connInmemory "github.com/sharetube/scrollfeed/internal/repository/connection/inmemory"
	sessionInmemory "github.com/sharetube/scrollfeed/internal/repository/session/inmemory"
	"github.com/sharetube/scrollfeed/internal/service/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/videos" {
			return
		}
		videos := make([]map[string]string, 10)
		for i := range videos {
			videos[i] = map[string]string{"id": fmt.Sprintf("v%d", i)}
		}
		json.NewEncoder(w).Encode(map[string]any{"videos": videos})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	mediaDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(mediaDir, "v1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mediaDir, "v1", "v1.mpd"), []byte("<MPD/>"), 0o644))

	m := metrics.New()
	svc := session.NewService(
		sessionInmemory.NewRepo(time.Hour),
		connInmemory.NewRepo(),
		backend.NewClient(newBackend(t).URL),
		manifest.NewReader(mediaDir),
		m,
		session.Config{},
	)
	c := NewController(svc, m, nil, Config{MediaDir: mediaDir})

	srv := httptest.NewServer(c.GetMux())
	t.Cleanup(func() {
		srv.Close()
		svc.Wait()
	})
	return srv, mediaDir
}

func dial(t *testing.T, srv *httptest.Server, videoID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/feed/" + videoID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one of type stop arrives and returns all of them.
func readUntil(t *testing.T, conn *websocket.Conn, stop string) []message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msgs []message
	for {
		var msg message
		require.NoError(t, conn.ReadJSON(&msg))
		msgs = append(msgs, msg)
		if msg.Type == stop {
			return msgs
		}
	}
}

func types(msgs []message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": typ, "payload": payload}))
}

func TestFeedSession(t *testing.T) {
	srv, _ := newServer(t)
	conn := dial(t, srv, "seed")

	msgs := readUntil(t, conn, "PLAY_PLAYER")
	assert.Equal(t, []string{"SESSION_OPENED", "CREATE_PLAYERS", "SHOW_PLAYER", "SET_PLAY_BUTTON", "PLAY_PLAYER"}, types(msgs))

	var created feed.CreatePlayers
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &created))
	require.Len(t, created.Players, 10)
	assert.Equal(t, feed.VideoID("seed"), created.Players[0].VideoID)
	assert.Equal(t, "/static/media/seed/seed.mpd", created.Players[0].ManifestURL)
	assert.False(t, created.Players[0].AutoSwitchBitrate)

	send(t, conn, "SCROLL", map[string]int{"offset": 40})
	msgs = readUntil(t, conn, "RESET_SCROLL")
	assert.Equal(t, []string{
		"SET_PLAY_BUTTON", "PAUSE_PLAYER",
		"HIDE_PLAYER", "SHOW_PLAYER", "PUSH_HISTORY",
		"SET_PLAY_BUTTON", "PLAY_PLAYER",
		"RESET_SCROLL",
	}, types(msgs))

	var pushed feed.PushHistory
	require.NoError(t, json.Unmarshal(msgs[4].Payload, &pushed))
	assert.Equal(t, "/play/v0", pushed.Path)

	send(t, conn, "METADATA_LOADED", map[string]any{"index": 1, "duration": 12.5})
	msgs = readUntil(t, conn, "SET_SEEK_MAX")
	assert.JSONEq(t, `{"index":1,"max":12.5}`, string(msgs[len(msgs)-1].Payload))

	send(t, conn, "STREAM_INITIALIZED", map[string]any{
		"index":     1,
		"qualities": []map[string]any{{"height": 360, "width": 640, "bandwidth": 512000}},
	})
	msgs = readUntil(t, conn, "SET_QUALITY_OPTIONS")
	assert.JSONEq(t, `{"source":1,"options":[{"value":0,"label":"360p"}]}`, string(msgs[len(msgs)-1].Payload))
}

const ladderMPD = `<?xml version="1.0" encoding="utf-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT12.0S" minBufferTime="PT10.0S">
  <Period id="0">
    <AdaptationSet id="0" contentType="video">
      <Representation id="0" mimeType="video/mp4" bandwidth="512000" width="640" height="360"></Representation>
      <Representation id="1" mimeType="video/mp4" bandwidth="768000" width="960" height="540"></Representation>
      <Representation id="2" mimeType="video/mp4" bandwidth="1024000" width="1280" height="720"></Representation>
    </AdaptationSet>
  </Period>
</MPD>
`

func TestFeedSession_emptyQualitiesUseManifest(t *testing.T) {
	srv, mediaDir := newServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(mediaDir, "seed"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mediaDir, "seed", "seed.mpd"), []byte(ladderMPD), 0o644))

	conn := dial(t, srv, "seed")
	readUntil(t, conn, "PLAY_PLAYER")

	// dash.js reports an empty bitrate list before the ladder is known
	send(t, conn, "STREAM_INITIALIZED", map[string]any{"index": 0, "qualities": []any{}})
	msgs := readUntil(t, conn, "SET_QUALITY_OPTIONS")
	assert.JSONEq(t,
		`{"source":0,"options":[{"value":0,"label":"360p"},{"value":1,"label":"540p"},{"value":2,"label":"720p"}]}`,
		string(msgs[len(msgs)-1].Payload),
	)

	send(t, conn, "QUALITY_CHANGED", map[string]any{"level": 2})
	msgs = readUntil(t, conn, "APPLY_QUALITY")
	assert.Equal(t, []string{"APPLY_QUALITY"}, types(msgs))
	assert.JSONEq(t, `{"index":0,"level":2}`, string(msgs[0].Payload))
}

func TestFeedSession_rejectsInvalidInput(t *testing.T) {
	srv, _ := newServer(t)
	conn := dial(t, srv, "seed")
	readUntil(t, conn, "PLAY_PLAYER")

	send(t, conn, "SEEK", map[string]any{})
	msgs := readUntil(t, conn, "ERROR")
	var payload struct {
		Message string `json:"message"`
		Details []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].Payload, &payload))
	assert.Equal(t, "invalid input", payload.Message)
	require.Len(t, payload.Details, 1)
	assert.Equal(t, "position", payload.Details[0].Field)

	send(t, conn, "NOPE", nil)
	msgs = readUntil(t, conn, "ERROR")
	assert.Contains(t, string(msgs[len(msgs)-1].Payload), "unknown message type")

	// the connection survives rejected messages
	send(t, conn, "TOGGLE_PLAY", nil)
	msgs = readUntil(t, conn, "PAUSE_PLAYER")
	assert.Equal(t, []string{"SET_PLAY_BUTTON", "PAUSE_PLAYER"}, types(msgs))
}

func TestFeedPage(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/play/abc123")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), `"abc123"`)
	assert.Contains(t, string(body), "dash.all.min.js")
	// the offset snaps back to the baseline right after each reported scroll
	assert.Contains(t, string(body), "send(\"SCROLL\", { offset: Math.round(window.scrollY) });\n    resetScroll(baseline);")
}

func TestStaticMedia(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/static/media/v1/v1.mpd")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<MPD/>", string(body))
}

func TestHealthzAndMetrics(t *testing.T) {
	srv, _ := newServer(t)
	conn := dial(t, srv, "seed")
	readUntil(t, conn, "PLAY_PLAYER")

	resp, err := http.Get(srv.URL + "/api/v1/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(1), health["active_sessions"])

	send(t, conn, "ALIVE", nil)
	send(t, conn, "TOGGLE_PLAY", nil)
	msgs := readUntil(t, conn, "PAUSE_PLAYER")
	assert.Equal(t, []string{"SET_PLAY_BUTTON", "PAUSE_PLAYER"}, types(msgs))

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	body, _ := io.ReadAll(mresp.Body)
	assert.Contains(t, string(body), `scrollfeed_ws_messages_total{type="TOGGLE_PLAY"} 1`)
	assert.Contains(t, string(body), "scrollfeed_active_sessions 1")
	assert.Contains(t, string(body), "scrollfeed_open_connections 1")
}
