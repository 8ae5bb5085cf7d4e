package ws

import (
	"encoding/json"
	"errors"
	"time"

	"cups_webapp/internal/logger"
	"cups_webapp/internal/round"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Client is one renderer connection bound to a game session
type Client struct {
	SessionKey string
	Conn       *websocket.Conn
	Send       chan []byte
	Done       chan struct{}

	hub    *Hub
	router Router
}

func NewClient(sessionKey string, conn *websocket.Conn, hub *Hub, router Router) *Client {
	return &Client{
		SessionKey: sessionKey,
		Conn:       conn,
		Send:       make(chan []byte, 256),
		Done:       make(chan struct{}),
		hub:        hub,
		router:     router,
	}
}

// Run registers the client and blocks until the connection drops
func (c *Client) Run() {
	go c.writePump()
	c.hub.Register(c)
	c.hub.SendTo(c, Message{Type: MsgReady})

	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(4096)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read error", "session", c.SessionKey, "error", err)
			}
			return
		}
		c.handle(raw)
	}
}

func (c *Client) handle(raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.hub.SendTo(c, Message{Type: MsgError, Payload: ErrorPayload{Message: "malformed message"}})
		return
	}

	switch msg.Type {
	case MsgPing:
		c.hub.SendTo(c, Message{Type: MsgPong})
	case MsgPick:
		if msg.Cup == nil {
			c.hub.SendTo(c, Message{Type: MsgError, Payload: ErrorPayload{Message: "cup required"}})
			return
		}
		if err := c.router.Pick(c.SessionKey, *msg.Cup); err != nil {
			// late picks after the latch are expected from double clicks
			if !errors.Is(err, round.ErrAlreadyPicked) {
				c.hub.SendTo(c, Message{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
			}
			logger.Debug("ws pick refused", "session", c.SessionKey, "cup", *msg.Cup, "error", err)
		}
	default:
		c.hub.SendTo(c, Message{Type: MsgError, Payload: ErrorPayload{Message: "unknown message type"}})
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Warn("ws write error", "session", c.SessionKey, "error", err)
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
