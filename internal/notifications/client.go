package notifications

import (
	"log"
	"time"

	"feedhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write an event to the subscriber.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the subscriber.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size accepted from a subscriber. The feed socket is
	// listen-only, so anything near this limit is a misbehaving client.
	maxMessageSize = 16384
)

// WSHub is the part of a hub a client needs: unregistration on disconnect
// and a name for logs and metrics.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is one subscriber connection on the feed hub.
type Client struct {
	Hub WSHub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound feed events.
	Send chan []byte

	// UserID for this subscriber
	UserID uint
}

// NewClient creates a new Client instance
func NewClient(hub WSHub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
}

// ReadPump drains inbound frames from the subscriber. Feed subscribers are
// listen-only, so the loop's job is refreshing read deadlines on pongs and
// detecting the disconnect.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("feed subscriber %d: read error: %v", c.UserID, err)
			}
			break
		}
		// Inbound payloads are ignored.
	}
}

// WritePump delivers queued feed events to the subscriber and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(event)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend enqueues an event without ever blocking the broadcaster, handling
// closed channels and full buffers.
func (c *Client) TrySend(event []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- event:
	default:
		// Buffer full, drop the event and tell the subscriber so it can
		// re-fetch the feed instead of rendering a gap.
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		log.Printf("feed subscriber %d (%s): buffer full, dropped event", c.UserID, c.Hub.Name())

		dropNotice := []byte(`{"type":"events_dropped","payload":{"reason":"buffer_full"}}`)
		select {
		case c.Send <- dropNotice:
		default:
			// Can't even send the notice -- subscriber is truly overwhelmed
		}
	}
}
