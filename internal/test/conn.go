package test

import (
	"errors"
	"sync"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

var ErrConnClosed = errors.New("connection closed")

// RecordingConn is an in-memory domain.Connection that keeps everything
// sent to it.
type RecordingConn struct {
	mu     sync.Mutex
	sent   []domain.Notification
	closed bool
}

func NewRecordingConn() *RecordingConn {
	return &RecordingConn{}
}

func (c *RecordingConn) Send(n domain.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}
	c.sent = append(c.sent, n)
	return nil
}

func (c *RecordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func (c *RecordingConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *RecordingConn) Closed() bool {
	return !c.Alive()
}

func (c *RecordingConn) Sent() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Notification(nil), c.sent...)
}

// Types lists the notification types received, in order.
func (c *RecordingConn) Types() []domain.NotificationType {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]domain.NotificationType, 0, len(c.sent))
	for _, n := range c.sent {
		types = append(types, n.Type)
	}
	return types
}

// Last returns the most recent notification of type t.
func (c *RecordingConn) Last(t domain.NotificationType) (domain.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.sent) - 1; i >= 0; i-- {
		if c.sent[i].Type == t {
			return c.sent[i], true
		}
	}
	return domain.Notification{}, false
}

func (c *RecordingConn) Count(t domain.NotificationType) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, n := range c.sent {
		if n.Type == t {
			count++
		}
	}
	return count
}

func (c *RecordingConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}
