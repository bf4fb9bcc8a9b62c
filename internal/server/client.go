// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/neonchat/neonchat/internal/chat"
)

const (
	pongWait      = 60 * time.Second
	pingInterval  = 54 * time.Second
	writeWait     = 10 * time.Second
	sendQueueSize = 256
)

// Client binds one WebSocket connection to its chat session. The read pump
// decodes inbound frames and feeds them to the session in receive order; the
// write pump drains the send queue one frame at a time, so outbound delivery
// is FIFO with at most one frame in flight.
type Client struct {
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	session        *chat.Session
	addr           string
	log            *zap.Logger
	closed         bool
	dropOnce       sync.Once
	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig
}

// NewClient creates a Client for the given connection and wires up its chat
// session against the hub's registry. The send queue is buffered so registry
// broadcasts never block on this client.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := hub.cfg
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	c := &Client{
		conn:           conn,
		send:           make(chan []byte, sendQueueSize),
		hub:            hub,
		addr:           addr,
		log:            hub.log.With(zap.String("addr", addr)),
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:      cfg.RateLimit,
	}
	c.session = chat.NewSession(hub.registry, c, c.log)
	return c
}

// EnqueueOutbound appends one payload to the client's send queue without
// blocking. A client whose queue is full can no longer keep up; its
// connection is dropped so the pumps run the normal disconnect path.
func (c *Client) EnqueueOutbound(payload []byte) bool {
	if c.hub.safeSend(c, payload) {
		return true
	}
	c.dropOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
	return false
}

// Session returns the chat session bound to this client.
func (c *Client) Session() *chat.Session {
	return c.session
}

// GetSendChan returns the client's send queue for reading outgoing payloads.
// This channel is read-only from the caller's perspective.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("setting initial read deadline failed", zap.Error(err))
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("setting read deadline in pong handler failed", zap.Error(err))
		}
		return nil
	})
}

// handleReadError logs appropriate messages based on the error type and
// reports whether the read loop should stop.
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, websocket.ErrReadLimit) {
		c.log.Warn("inbound frame exceeded read limit",
			zap.Int64("limit", c.maxMessageSize))
		return true
	}

	// Clean close and connection reset are the normal termination path, not
	// an error.
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		c.log.Info("client disconnected", zap.Error(err))
		return true
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		c.log.Info("connection closed", zap.Error(err))
		return true
	}

	c.log.Warn("websocket read error", zap.Error(err))
	return true
}

// checkRateLimit reports whether the inbound frame may be processed.
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.log.Warn("rate limit exceeded, discarding frame",
			zap.Int("burst", c.rateLimit.Burst),
			zap.Duration("interval", c.rateLimit.RefillInterval))
		return false
	}
	return true
}

// processFrame decodes one raw inbound frame and hands the event to the chat
// session. Malformed frames are dropped silently; the connection stays open.
func (c *Client) processFrame(raw []byte) {
	ev, err := chat.DecodeEvent(raw)
	if err != nil {
		c.log.Debug("dropping malformed frame", zap.Error(err))
		return
	}
	c.session.HandleEvent(ev)
}

func (c *Client) readPump() {
	defer func() {
		c.session.Disconnected()
		// During hub shutdown the event loop is gone; don't block on it.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				c.log.Warn("closing connection in readPump failed", zap.Error(err))
			}
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if c.handleReadError(err) {
				break
			}
		}

		if !c.checkRateLimit() {
			continue
		}

		c.processFrame(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case payload, ok := <-c.send:
		return c.handlePayload(payload, ok)
	case <-ticker.C:
		return c.handlePing()
	case <-c.hub.ctx.Done():
		// Hub is shutting down; queued payloads are abandoned.
		return c.writeCloseMessage()
	}
}

// closeConnection closes the WebSocket connection, ignoring the errors
// expected when the peer is already gone.
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("closing connection in writePump failed", zap.Error(err))
		}
	}
}

// handlePayload writes one queued payload as its own text frame. Each payload
// is a complete JSON document, so frames are never coalesced. Returns false
// if the connection should be closed.
func (c *Client) handlePayload(payload []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("setting write deadline failed", zap.Error(err))
		return false
	}

	if !ok {
		// Send queue closed by the hub: drain is complete.
		return c.writeCloseMessage()
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("writing frame failed", zap.Error(err))
		}
		return false
	}
	return true
}

// writeCloseMessage sends a close frame to the client.
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("writing close frame failed", zap.Error(err))
		}
	}
	return false
}

// handlePing sends a ping frame to keep the connection alive.
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("setting write deadline for ping failed", zap.Error(err))
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("writing ping frame failed", zap.Error(err))
		}
		return false
	}
	return true
}
