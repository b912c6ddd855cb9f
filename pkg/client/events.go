package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/tcmartin/integrator/pkg/logging"
	"github.com/tcmartin/integrator/pkg/models"
)

// EventStream is the SSE stream change events are published on
const EventStream = "changes"

// ChangeHandler receives change events
type ChangeHandler func(event models.ChangeEvent)

// Watch subscribes to the server's SSE change feed and calls handler for each
// event until ctx is cancelled. Dropped connections are retried.
func (c *Client) Watch(ctx context.Context, handler ChangeHandler) error {
	sseClient := sse.NewClient(c.endpoint("/events"))
	sseClient.Headers = c.requestHeaders()
	sseClient.ReconnectStrategy = backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	err := sseClient.SubscribeWithContext(ctx, EventStream, func(msg *sse.Event) {
		if msg == nil || len(msg.Data) == 0 {
			return
		}
		var event models.ChangeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			c.logger.Warn("dropping malformed change event", logging.Err(err))
			return
		}
		handler(event)
	})
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("change feed: %w", err)
	}
	return nil
}

// websocketURL returns the websocket URL of the change feed
func (c *Client) websocketURL() string {
	endpoint := c.endpoint("/ws")
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint
}

// WatchWebSocket subscribes to the server's websocket change feed and calls
// handler for each event until ctx is cancelled or the connection closes.
func (c *Client) WatchWebSocket(ctx context.Context, handler ChangeHandler) error {
	header := http.Header{}
	for k, v := range c.requestHeaders() {
		header.Set(k, v)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL(), header)
	if err != nil {
		if resp != nil {
			return &APIError{StatusCode: resp.StatusCode, Status: statusText(resp)}
		}
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		var event models.ChangeEvent
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read change event: %w", err)
		}
		if err := json.Unmarshal(data, &event); err != nil {
			c.logger.Warn("dropping malformed change event", logging.Err(err))
			continue
		}
		handler(event)
	}
}
