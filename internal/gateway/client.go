package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size.
	maxMessageSize = 64 << 10

	sendBuffer = 256
)

var errSendBufferFull = errors.New("client send buffer full")

// Client wraps one websocket connection and satisfies registry.Connection.
// Outbound payloads go through a buffered channel drained by writePump, so
// Send never blocks the broadcaster.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string
	log    zerolog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(conn *websocket.Conn, userID string, log zerolog.Logger) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		log:    log,
		closed: make(chan struct{}),
	}
}

func (c *Client) UserID() string { return c.userID }

// Send enqueues one logical event for the peer. A slow consumer surfaces as
// a full buffer, not a blocked broadcast.
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close is safe to call from both pumps at once; only the first caller closes
// the channel.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

// readPump pumps inbound frames to the handler until the peer goes away.
func (c *Client) readPump(onFrame func(data []byte), onClose func()) {
	defer func() {
		onClose()
		_ = c.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Str("user_id", c.userID).Msg("websocket read error")
			}
			return
		}
		onFrame(data)
	}
}

// writePump drains the send channel to the connection and keeps the peer
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()
	for {
		select {
		case <-c.closed:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
