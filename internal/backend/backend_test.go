package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/videos", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"count": float64(10), "videoId": "c", "readyToWatch": true}, body)

		w.Write([]byte(`{"videos":[{"id":"a","title":"x"},{"id":"b"},{"id":"c"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	videos, err := c.Videos(context.Background(), &VideosParams{Count: 10, VideoID: "c", ReadyToWatch: true})
	require.NoError(t, err)
	assert.Equal(t, []Video{{ID: "a"}, {ID: "b"}, {ID: "c"}}, videos)
}

func TestViewAndLike(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.URL.Path {
		case "/api/view":
			got = append(got, "view:"+body["id"].(string))
		case "/api/like":
			assert.Equal(t, false, body["value"])
			got = append(got, "like:"+body["id"].(string))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.View(context.Background(), "v1"))
	require.NoError(t, c.Like(context.Background(), "v2", false))
	assert.Equal(t, []string{"view:v1", "like:v2"}, got)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).View(context.Background(), "v1")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "/api/view", statusErr.Endpoint)
	assert.Equal(t, "nope", statusErr.Body)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, WithTimeout(20*time.Millisecond)).Videos(context.Background(), &VideosParams{Count: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVideos_badJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"videos":`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Videos(context.Background(), &VideosParams{Count: 1})
	assert.ErrorContains(t, err, "failed to decode")
}
