package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

type VideosParams struct {
	Count        int    `json:"count"`
	VideoID      string `json:"videoId"`
	ReadyToWatch bool   `json:"readyToWatch"`
}

type Video struct {
	ID string `json:"id"`
}

type videosResponse struct {
	Videos []Video `json:"videos"`
}

type viewRequest struct {
	ID string `json:"id"`
}

type likeRequest struct {
	ID    string `json:"id"`
	Value bool   `json:"value"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request; zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	return nil
}

// Videos asks for params.Count ids anchored at params.VideoID, in backend order.
func (c *Client) Videos(ctx context.Context, params *VideosParams) ([]Video, error) {
	var resp videosResponse
	if err := c.post(ctx, "/api/videos", params, &resp); err != nil {
		return nil, err
	}

	return resp.Videos, nil
}

func (c *Client) View(ctx context.Context, id string) error {
	return c.post(ctx, "/api/view", viewRequest{ID: id}, nil)
}

func (c *Client) Like(ctx context.Context, id string, value bool) error {
	return c.post(ctx, "/api/like", likeRequest{ID: id, Value: value}, nil)
}
