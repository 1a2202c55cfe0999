// Package client talks to a running tracking daemon over its HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/busnap/tracking-bridge/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Status mirrors GET /v1/tracking/status.
type Status struct {
	Tracking  bool       `json:"tracking"`
	State     string     `json:"state"`
	SessionID string     `json:"session_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Listening bool       `json:"listening"`
	Channel   string     `json:"channel"`
}

// APIError is a non-2xx answer from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
}

// Is lets callers match well-known answers with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotImplemented:
		return e.StatusCode == http.StatusNotImplemented
	case domain.ErrNotSubscribed:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// Client is a thin wrapper over the daemon's routes.
type Client struct {
	base *url.URL
	http *http.Client
}

// New parses baseURL (e.g. http://localhost:8080).
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse daemon address: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("daemon address %q must be http or https", baseURL)
	}
	return &Client{base: u, http: &http.Client{Timeout: defaultTimeout}}, nil
}

// Call invokes a command channel method and returns its result.
func (c *Client) Call(ctx context.Context, method string) (bool, error) {
	var resp struct {
		Result bool `json:"result"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/channels/location_service/"+url.PathEscape(method), nil, &resp)
	if err != nil {
		return false, err
	}
	return resp.Result, nil
}

// Status fetches the tracking status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.do(ctx, http.MethodGet, "/v1/tracking/status", nil, &st)
	return st, err
}

// Sessions fetches up to limit recent sessions.
func (c *Client) Sessions(ctx context.Context, limit int) ([]domain.TrackingSession, error) {
	var sessions []domain.TrackingSession
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/tracking/sessions?limit=%d", limit), nil, &sessions)
	return sessions, err
}

// CancelListener clears whichever listener the daemon has installed.
func (c *Client) CancelListener(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/channels/location_events/listener", nil, nil)
}

// Listen opens the event channel and calls fn for every fix until ctx is
// cancelled or the daemon closes the channel. Opening it replaces any other
// listener.
func (c *Client) Listen(ctx context.Context, fn func(domain.LocationFix)) error {
	wsURL := *c.base
	wsURL.Scheme = "ws"
	if c.base.Scheme == "https" {
		wsURL.Scheme = "wss"
	}
	wsURL.Path += "/v1/channels/location_events"

	dialer := websocket.Dialer{HandshakeTimeout: defaultTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		var fix domain.LocationFix
		if err := conn.ReadJSON(&fix); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		fn(fix)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		if envelope.Error == "" {
			envelope.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

var _ error = (*APIError)(nil)

// IsNotImplemented reports whether err is the daemon's answer to an unknown command.
func IsNotImplemented(err error) bool {
	return errors.Is(err, domain.ErrNotImplemented)
}
