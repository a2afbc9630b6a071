package websocket

import (
	"chat-rooms/contract"
	"chat-rooms/domain/chat"
	"chat-rooms/domain/event"
	"chat-rooms/errors"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var _ contract.EventSink = (*Client)(nil)
var _ Emitter = (*Client)(nil)

// Client owns one WebSocket connection: a read pump feeding the session and a
// write pump draining a bounded buffer. Enqueueing never blocks; a client that
// falls behind is disconnected.
type Client struct {
	id        chat.ConnectionID
	conn      *websocket.Conn
	log       *slog.Logger
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter
	cfg       Config
}

func newClient(id chat.ConnectionID, conn *websocket.Conn, log *slog.Logger, cfg Config) *Client {
	conn.SetReadLimit(cfg.MaxFrameSize)
	return &Client{
		id:      id,
		conn:    conn,
		log:     log.With("connection_id", id),
		send:    make(chan []byte, cfg.BufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		cfg:     cfg,
	}
}

// Consume turns a committed message into a newMessage frame.
func (c *Client) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		return c.Emit(EventNewMessage, evt.Message.Format())
	default:
		return nil
	}
}

// Emit encodes and enqueues one frame.
func (c *Client) Emit(eventName string, data any) error {
	frame, err := encode(eventName, data)
	if err != nil {
		return err
	}
	return c.enqueue(frame)
}

func (c *Client) enqueue(frame []byte) error {
	select {
	case <-c.done:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		c.log.Warn("Send buffer full, disconnecting slow client", "buffer", cap(c.send))
		c.Close()
		return fmt.Errorf("%w: %s", errors.ErrSlowConsumer, c.id)
	}
}

// Close stops the write pump, which sends a close frame and closes the socket.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.log.Debug("Error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})
}

// readPump handles frames sequentially until the peer goes away.
func (c *Client) readPump(ctx context.Context, session *Session) {
	defer func() {
		session.Close()
		c.Close()
	}()
	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if !c.limiter.Allow() {
			c.log.Debug("Rate limit exceeded, discarding frame")
			session.fail(errors.Detailed(errors.ErrInvalidPayload, "Too many messages, slow down"))
			continue
		}
		envelope, err := decodeEnvelope(raw)
		if err != nil {
			session.fail(err)
			continue
		}
		session.Handle(ctx, envelope)
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case stderrors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Frame exceeded maximum size", "max_bytes", c.cfg.MaxFrameSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway),
		stderrors.Is(err, io.EOF), isExpectedCloseError(err):
		c.log.Debug("Client disconnected", "error", err)
	default:
		c.log.Info("WebSocket read error", "error", err)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				c.Close()
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes frames already queued before the close was requested.
func (c *Client) flush() {
	for n := len(c.send); n > 0; n-- {
		if !c.write(websocket.TextMessage, <-c.send) {
			return
		}
	}
}

func (c *Client) write(messageType int, payload []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		return false
	}
	if err := c.conn.WriteMessage(messageType, payload); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Debug("Error writing frame", "error", err)
		}
		return false
	}
	return true
}

func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if stderrors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe")
}
