package realtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	maxMessageSize = 1 << 20
)

// clientMessage is the shape of every client-to-server frame.
type clientMessage struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Data      any       `json:"data"`
}

// client couples one WebSocket connection with its registry entry. The read
// pump owns conn reads, the write pump owns conn writes; the registry channel
// is the only bridge between them.
type client struct {
	id       string
	conn     *websocket.Conn
	registry *Registry
	outbound <-chan Message
}

// readPump consumes client frames until the connection dies, then removes the
// connection from the registry. The registry close of the outbound channel is
// what stops the write pump.
func (c *client) readPump() {
	defer func() {
		c.registry.Disconnect(c.id)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "conn_id", c.id, "error", err)
			}
			return
		}
		c.handle(raw)
	}
}

func (c *client) handle(raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.registry.Send(c.id, ErrorEvent(CodeInvalidMessage, "malformed message"))
		return
	}
	switch msg.Type {
	case EventJoinSession:
		if msg.SessionID == "" {
			c.registry.Send(c.id, ErrorEvent(CodeInvalidMessage, "join_session requires sessionId"))
			return
		}
		c.registry.Join(c.id, msg.SessionID)
	case EventLeaveSession:
		c.registry.Leave(c.id)
	case EventAudioChunk:
		if msg.SessionID == "" || !c.registry.Relay(c.id, msg.SessionID, AudioChunk(msg.Data)) {
			c.registry.Send(c.id, ErrorEvent(CodeNotInSession, "join the session before sending audio"))
		}
	default:
		c.registry.Send(c.id, ErrorEvent(CodeInvalidMessage, "unknown message type"))
	}
}

// writePump serializes outbound messages and keeps the connection alive with
// pings. It exits when the registry closes the outbound channel or a write
// fails; either way the connection is closed, which unblocks the read pump.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					slog.Warn("websocket write failed", "conn_id", c.id, "error", err)
				}
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
