package gateway

import (
	"sync"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

// hub tracks the single live connection allowed per participant.
type hub struct {
	mu    sync.Mutex
	conns map[domain.ParticipantID]*wsConn
}

func newHub() *hub {
	return &hub{conns: make(map[domain.ParticipantID]*wsConn)}
}

func (h *hub) claim(id domain.ParticipantID, conn *wsConn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.conns[id]; ok && existing.Alive() {
		return false
	}
	h.conns[id] = conn
	return true
}

func (h *hub) connected(id domain.ParticipantID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[id]
	return ok && conn.Alive()
}

func (h *hub) release(id domain.ParticipantID, conn *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[id] == conn {
		delete(h.conns, id)
	}
}

// closeAll closes every tracked connection, used on shutdown.
func (h *hub) closeAll() {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.conns)
}
