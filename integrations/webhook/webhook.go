// Package webhook posts engine events to external HTTP endpoints, letting the
// tourism site notify companion services of unlocks and level-ups.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tripquest/core"
)

// Sink posts domain events to configured HTTP endpoints.
// It is synchronous for determinism; keep endpoints fast or wrap with
// buffering if needed.
type Sink struct {
	client    *http.Client
	endpoints []string
	kinds     map[core.Kind]struct{}
	log       *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithKinds restricts delivery to the given event kinds. Without it every
// event is delivered.
func WithKinds(kinds ...core.Kind) Option {
	return func(s *Sink) {
		s.kinds = make(map[core.Kind]struct{}, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = struct{}{}
		}
	}
}

// WithLogger overrides the failure logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Sink) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// OnEvent posts the event JSON to all endpoints. Delivery failures are logged
// and never propagate back into the engine.
func (s *Sink) OnEvent(e core.Event) {
	if len(s.endpoints) == 0 {
		return
	}
	if s.kinds != nil {
		if _, ok := s.kinds[e.Kind]; !ok {
			return
		}
	}
	body, err := json.Marshal(e)
	if err != nil {
		return
	}
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tripquest-Event", string(e.Kind))
		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Warn("webhook delivery failed", "endpoint", ep, "error", err)
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode >= 400 {
			s.log.Warn("webhook endpoint rejected event", "endpoint", ep, "status", resp.StatusCode)
		}
	}
}
