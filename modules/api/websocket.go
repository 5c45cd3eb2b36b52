package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/social-chat/modules/chat"
	"github.com/gofiber/contrib/websocket"
)

var (
	errTransportClosed = errors.New("transport closed")
	errSendQueueFull   = errors.New("send queue full")
)

// frameWriter is the part of a websocket connection the transport writes to.
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// wsTransport queues outbound frames for one websocket and writes them from
// a single goroutine, so a slow client never blocks a handler.
type wsTransport struct {
	conn      frameWriter
	queue     chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

var _ chat.Transport = (*wsTransport)(nil)

func newWSTransport(conn frameWriter, size int) *wsTransport {
	if size <= 0 {
		size = 1
	}
	return &wsTransport{
		conn:  conn,
		queue: make(chan []byte, size),
		done:  make(chan struct{}),
	}
}

// Write queues frame. A full queue drops the frame.
func (t *wsTransport) Write(frame []byte) error {
	select {
	case <-t.done:
		return errTransportClosed
	default:
	}
	select {
	case t.queue <- frame:
		return nil
	default:
		return errSendQueueFull
	}
}

// Close stops the writer and closes the websocket. It is safe to call more
// than once.
func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

// run writes queued frames until the transport is closed or a write fails.
func (t *wsTransport) run() {
	for {
		select {
		case <-t.done:
			return
		case frame := <-t.queue:
			if err := t.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				_ = t.Close()
				return
			}
		}
	}
}

// handleWebSocket handles WebSocket connections at /ws.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	transport := newWSTransport(c, m.cfg.SendBuffer)
	go transport.run()

	ctx := context.Background()
	conn := m.hub.Connect(transport)
	limiter := newRateLimiter(m.cfg.RateBurst, m.cfg.RatePerSecond, time.Now)
	defer func() {
		m.hub.Disconnect(ctx, conn)
		_ = transport.Close()
	}()

	m.logger.Info("WebSocket client connected", "connectionID", conn.ID(), "remote", c.RemoteAddr().String())

	// Message loop
	for {
		_, frame, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Info("WebSocket client closed connection", "connectionID", conn.ID())
			} else {
				m.logger.Debug("WebSocket read error", "connectionID", conn.ID(), "error", err)
			}
			return
		}

		if !limiter.allow() {
			conn.Send(chat.KindError, chat.ErrorPayload{
				Code:  chat.CodeRateLimited,
				Error: "rate limit exceeded, please slow down",
			})
			continue
		}
		m.hub.Handle(ctx, conn, frame)
	}
}
