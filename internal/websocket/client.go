package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	// Outbound buffer; a subscriber that cannot keep up loses frames
	// rather than stalling the match.
	sendBufferSize = 256
)

// Client adapts a websocket connection into an EventSink for one session.
type Client struct {
	conn        *websocket.Conn
	broadcaster *Broadcaster
	sessionID   string
	send        chan []byte
	closeOnce   sync.Once
}

func NewClient(conn *websocket.Conn, broadcaster *Broadcaster, sessionID string) *Client {
	return &Client{
		conn:        conn,
		broadcaster: broadcaster,
		sessionID:   sessionID,
		send:        make(chan []byte, sendBufferSize),
	}
}

func (c *Client) Send(event StreamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR [websocket.Client] failed to marshal event: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("WARN [websocket.Client] dropping %s event for slow subscriber on session %s", event.Type, c.sessionID)
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// ReadPump drains the connection. Spectators never send application
// messages; reading is still required to process pongs and detect
// disconnects. Closing the connection does not cancel the match.
func (c *Client) ReadPump() {
	defer func() {
		c.broadcaster.Unregister(c.sessionID, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket error on session %s: %v", c.sessionID, err)
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
