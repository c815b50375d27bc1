package server

import (
	"errors"

	"network/internal/middleware"
	"network/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler serves GET /ws, the push-only stream of feed events.
// Anonymous viewers may connect; the caller resolved by Authenticate is
// carried into the socket through Locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		viewer, _ := conn.Locals("userID").(uint)

		client, err := s.hub.Register(viewer, conn)
		if err != nil {
			reason := "server_full"
			switch {
			case errors.Is(err, notifications.ErrUserFull):
				reason = "too_many_connections"
			case errors.Is(err, notifications.ErrHubClosed):
				reason = "shutting_down"
			}
			middleware.Logger.Warn("feed socket rejected", "viewer_id", viewer, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"reason":"`+reason+`"}}`))
			_ = conn.Close()
			return
		}

		middleware.Logger.Debug("feed socket connected", "viewer_id", viewer)
		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
