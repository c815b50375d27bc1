package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"network/internal/notifications"

	"github.com/gorilla/websocket"
)

// Subscribe streams live feed events to handle until ctx is cancelled or the
// server closes the connection. Cancellation is not an error.
func (c *Client) Subscribe(ctx context.Context, handle func(notifications.Event)) error {
	u := *c.base
	u.Scheme = "ws"
	if c.base.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path += "/ws"

	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read feed event: %w", err)
		}
		var ev notifications.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.logger.WarnContext(ctx, "undecodable feed event", "error", err)
			continue
		}
		handle(ev)
	}
}
