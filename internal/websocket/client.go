package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

// Client is one WebSocket connection watching a room.
type Client struct {
	ID       string
	SchoolID string
	Room     string
	Conn     *websocket.Conn
	Send     chan []byte

	mu        sync.Mutex // serializes SendMessage against closeSend
	closed    bool
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, schoolID, room string) *Client {
	return &Client{
		ID:       uuid.New().String(),
		SchoolID: schoolID,
		Room:     room,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
	}
}

// WriteLoop handles outbound messages from the Send channel
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.closeConn()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if c.Conn == nil {
		return nil
	}
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(messageType, data)
}

// SendMessage queues msg without blocking. Frames are full snapshots, so when the
// buffer is full the oldest queued frame is dropped in favour of msg.
func (c *Client) SendMessage(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.Send <- msg:
			return
		default:
		}
		select {
		case <-c.Send:
		default:
		}
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

func (c *Client) closeConn() {
	c.closeOnce.Do(func() {
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}
