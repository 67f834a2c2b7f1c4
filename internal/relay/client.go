package relay

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ysxemail003-cpu/ipv6conf/internal/signaling"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP bodies dominate.
	maxMessageSize = 64 * 1024
)

// client wraps a single relay WebSocket connection. userID and roomID are
// hub-owned; the pumps never touch them.
type client struct {
	hub  *Hub
	conn *websocket.Conn

	userID string
	roomID string

	send chan *signaling.Message
}

func newClient(hub *Hub, conn *websocket.Conn) *client {
	return &client{
		hub:  hub,
		conn: conn,
		send: make(chan *signaling.Message, 256),
	}
}

// deliver queues a message for the connection, dropping it when the
// client's writer has fallen behind.
func (c *client) deliver(msg *signaling.Message) {
	select {
	case c.send <- msg:
	default:
		slog.Warn("dropping message for slow client", "user", c.userID, "type", msg.Type)
	}
}

// readPump pumps messages from the connection to the hub. Malformed
// frames are dropped at this boundary; the hub only sees valid messages.
// There is at most one reader per connection.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("read error", "remote", c.conn.RemoteAddr(), "error", err)
			}
			return
		}
		msg, err := signaling.Parse(data)
		if err != nil {
			slog.Warn("dropping malformed message", "remote", c.conn.RemoteAddr(), "error", err)
			continue
		}
		c.hub.forward <- inbound{client: c, msg: msg}
	}
}

// writePump pumps messages from the hub to the connection and keeps it
// alive with pings. There is at most one writer per connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				slog.Debug("write error", "user", c.userID, "error", err)
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
