package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

var (
	errConnClosed   = errors.New("connection closed")
	errOutboundFull = errors.New("outbound buffer full")
)

// wsConn is the outbound half of a websocket client. Notifications are
// buffered and written by a single writer goroutine, so Send never
// touches the network.
type wsConn struct {
	ws           *websocket.Conn
	logger       *zap.Logger
	writeTimeout time.Duration

	mu       sync.Mutex
	closed   bool
	outbound chan domain.Notification
	done     chan struct{}
	finished chan struct{}
}

var _ domain.Connection = (*wsConn)(nil)

func newWSConn(ws *websocket.Conn, logger *zap.Logger, bufferSize int, writeTimeout time.Duration) *wsConn {
	return &wsConn{
		ws:           ws,
		logger:       logger,
		writeTimeout: writeTimeout,
		outbound:     make(chan domain.Notification, bufferSize),
		done:         make(chan struct{}),
		finished:     make(chan struct{}),
	}
}

// Send enqueues n. A client that cannot keep up with its buffer is cut
// off.
func (c *wsConn) Send(n domain.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errConnClosed
	}

	select {
	case c.outbound <- n:
		return nil
	default:
		c.closeLocked()
		return errOutboundFull
	}
}

// Close stops accepting notifications. Already buffered ones are still
// written before the socket is closed.
func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()
	return nil
}

func (c *wsConn) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

func (c *wsConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return !c.closed
}

// writeLoop owns every write to the socket. It returns after the
// connection was closed and the buffer drained.
func (c *wsConn) writeLoop() {
	defer close(c.finished)
	defer func() {
		_ = c.ws.Close()
	}()

	for {
		select {
		case n := <-c.outbound:
			if err := c.write(n); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				_ = c.Close()
				return
			}
		case <-c.done:
			c.drain()
			return
		}
	}
}

func (c *wsConn) drain() {
	for {
		select {
		case n := <-c.outbound:
			if err := c.write(n); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *wsConn) write(n domain.Notification) error {
	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return websocket.JSON.Send(c.ws, n)
}

// wait blocks until the writer is done with the socket.
func (c *wsConn) wait() {
	<-c.finished
}
