// Package sdk provides typed access to the tripquest HTTP + WebSocket API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"tripquest/core"
	"tripquest/engine"
)

// Option configures the Client.
type Option func(*Client)

// Client talks to a tripquest server.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL
// (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// Progress fetches the current raw progress record.
func (c *Client) Progress(ctx context.Context) (core.ProgressRecord, error) {
	var rec core.ProgressRecord
	err := c.doJSON(ctx, http.MethodGet, "/progress", nil, &rec)
	return rec, err
}

// Summary fetches the display-ready projection.
func (c *Client) Summary(ctx context.Context) (engine.Summary, error) {
	var s engine.Summary
	err := c.doJSON(ctx, http.MethodGet, "/summary", nil, &s)
	return s, err
}

// RecordVisit marks a destination as visited and returns the updated record.
func (c *Client) RecordVisit(ctx context.Context, place string) (core.ProgressRecord, error) {
	var rec core.ProgressRecord
	if strings.TrimSpace(place) == "" {
		return rec, ErrEmptyPlace
	}
	err := c.doJSON(ctx, http.MethodPost, "/visits/"+url.PathEscape(place), nil, &rec)
	return rec, err
}

// AwardPoints grants points for an arbitrary reason.
func (c *Client) AwardPoints(ctx context.Context, amount int, reason string) (core.ProgressRecord, error) {
	var rec core.ProgressRecord
	if amount <= 0 {
		return rec, errors.New("amount must be positive")
	}
	body := map[string]any{"amount": amount, "reason": reason}
	err := c.doJSON(ctx, http.MethodPost, "/points", body, &rec)
	return rec, err
}

// UnlockBadge force-unlocks a badge by id.
func (c *Client) UnlockBadge(ctx context.Context, badge string) (core.ProgressRecord, error) {
	var rec core.ProgressRecord
	if strings.TrimSpace(badge) == "" {
		return rec, errors.New("badge id is required")
	}
	err := c.doJSON(ctx, http.MethodPost, "/badges/"+url.PathEscape(badge), nil, &rec)
	return rec, err
}

// Track bumps an engagement counter: wildlife, image, culture or map.
func (c *Client) Track(ctx context.Context, counter string) (core.ProgressRecord, error) {
	var rec core.ProgressRecord
	err := c.doJSON(ctx, http.MethodPost, "/track/"+url.PathEscape(counter), nil, &rec)
	return rec, err
}

// ExportSnapshot downloads the progress snapshot JSON.
func (c *Client) ExportSnapshot(ctx context.Context) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/snapshot", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportSnapshot uploads a progress snapshot, replacing current progress.
func (c *Client) ImportSnapshot(ctx context.Context, snapshot []byte) (core.ProgressRecord, error) {
	var rec core.ProgressRecord
	req, err := c.newRequest(ctx, http.MethodPut, "/snapshot", bytes.NewReader(snapshot))
	if err != nil {
		return rec, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rec, err
	}
	defer resp.Body.Close()
	if err := decodeJSON(resp, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Reset wipes all progress.
func (c *Client) Reset(ctx context.Context) (core.ProgressRecord, error) {
	var rec core.ProgressRecord
	err := c.doJSON(ctx, http.MethodPost, "/reset", nil, &rec)
	return rec, err
}

// Health probes /healthz. Note: healthz lives at the server root, not under
// the API prefix.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	root, err := serverRoot(c.baseURL)
	if err != nil {
		return hs, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root+"/healthz", nil)
	if err != nil {
		return hs, err
	}
	c.applyHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return hs, err
	}
	defer resp.Body.Close()
	if err := decodeJSON(resp, &hs); err != nil {
		return hs, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event
// values. The returned channel closes when ctx is done or the connection
// drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, target any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	}
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)
	return req, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func serverRoot(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = ""
	u.RawQuery = ""
	return u.String(), nil
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
