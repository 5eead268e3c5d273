package server

import (
	"context"
	"encoding/json"

	"feedhub/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketFeedHandler handles WebSocket connections for realtime feed events.
// Subscribers receive one JSON message per feed mutation plus any per-user
// notifications; the stream is outbound-only.
func (s *Server) WebsocketFeedHandler() fiber.Handler {
	wsLog := observability.NewWSLogger(s.hub.Name())

	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		// Get userID from context locals (set by AuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			wsLog.LogError(ctx, userID, err, "register")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		wsLog.LogConnect(ctx, userID)

		// Send welcome message
		welcome := map[string]interface{}{
			"type":    "connected",
			"payload": map[string]interface{}{"user_id": userID},
		}
		if welcomeJSON, err := json.Marshal(welcome); err == nil {
			client.TrySend(welcomeJSON)
		}

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking). Inbound
		// messages are ignored; the read loop exists to detect disconnects
		// and answer pings.
		client.ReadPump()

		wsLog.LogDisconnect(ctx, userID, "connection closed")
	})
}
