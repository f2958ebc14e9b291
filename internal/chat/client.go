package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Ping period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size
	maxMessageSize = 4096

	// Outbound buffer before a slow socket is dropped
	sendBufferSize = 256

	// Deadline for the store work behind a single frame
	frameTimeout = 10 * time.Second
)

// wsClient binds one websocket connection to the gateway. The read
// pump is the only goroutine touching inbound frames, the write pump
// the only one writing, so the connection never sees concurrent use.
type wsClient struct {
	socketID string
	userID   uuid.UUID
	conn     *websocket.Conn
	gateway  *Gateway
	log      *slog.Logger

	send      chan OutboundFrame
	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(conn *websocket.Conn, userID uuid.UUID, gateway *Gateway, log *slog.Logger) *wsClient {
	return &wsClient{
		socketID: uuid.NewString(),
		userID:   userID,
		conn:     conn,
		gateway:  gateway,
		log:      log,
		send:     make(chan OutboundFrame, sendBufferSize),
		done:     make(chan struct{}),
	}
}

func (c *wsClient) SocketID() string { return c.socketID }

func (c *wsClient) UserID() uuid.UUID { return c.userID }

// Emit queues a frame without blocking. A full buffer means the peer
// stopped reading; the socket is closed rather than stalling the
// gateway behind it.
func (c *wsClient) Emit(event string, data any) {
	select {
	case c.send <- OutboundFrame{Event: event, Data: data}:
	default:
		c.log.Warn("send buffer full, dropping socket",
			"socket_id", c.socketID,
			"user_id", c.userID)
		c.Close()
	}
}

func (c *wsClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump consumes inbound frames until the connection dies or the
// gateway declares a frame fatal. Presence cleanup happens here, once,
// no matter how the socket ends.
func (c *wsClient) readPump() {
	defer func() {
		c.gateway.Disconnect(c)
		c.Close()
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("unexpected socket close",
					"socket_id", c.socketID,
					"error", err)
			}
			return
		}

		frame := Frame{}
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Warn("unreadable frame, dropping socket",
				"socket_id", c.socketID,
				"error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
		err = c.gateway.HandleFrame(ctx, c, frame)
		cancel()
		if err != nil {
			c.log.Warn("fatal frame, dropping socket",
				"socket_id", c.socketID,
				"event", frame.Event,
				"error", err)
			return
		}
	}
}

// writePump serializes queued frames and keeps the connection alive
// with pings
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
