package hub

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Faysoula/SyncSolve-sub000/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 32
)

// Client is one connected user. ID is the connection handle other peers use
// to address signaling messages; a user reconnecting gets a fresh handle.
type Client struct {
	ID     string
	UserID int64

	hub    *Hub
	conn   *websocket.Conn
	send   chan events.ServerEvent
	logger *slog.Logger
}

func NewClient(h *Hub, conn *websocket.Conn, userID int64, logger *slog.Logger) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		hub:    h,
		conn:   conn,
		send:   make(chan events.ServerEvent, sendQueueSize),
		logger: logger,
	}
}

// Send queues an outbound event. Delivery is best-effort: if the client's
// queue is full the event is dropped rather than blocking the relay path.
func (c *Client) Send(evt events.ServerEvent) {
	select {
	case c.send <- evt:
	default:
		c.logger.Warn("send queue full, dropping event",
			"handle_id", c.ID,
			"user_id", c.UserID,
			"event", evt.Type)
	}
}

// ReadPump consumes inbound frames until the connection errors, dispatching
// each to the hub. Malformed frames are logged and dropped; the connection
// stays alive.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket closed unexpectedly", "handle_id", c.ID, "error", err)
			}
			return
		}

		var evt events.ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.logger.Warn("dropping malformed event frame", "handle_id", c.ID, "error", err)
			continue
		}

		c.hub.HandleEvent(c, evt)
	}
}

// WritePump drains the send queue onto the wire and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
