package matchmaking

import (
	"sync"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

// Registry maps participants to the session they are seated in. It
// never calls into a session, so sessions may deregister themselves
// while holding their own lock.
type Registry struct {
	mu            sync.RWMutex
	byParticipant map[domain.ParticipantID]*domain.GameSession
	byID          map[string]*domain.GameSession
}

func NewRegistry() *Registry {
	return &Registry{
		byParticipant: make(map[domain.ParticipantID]*domain.GameSession),
		byID:          make(map[string]*domain.GameSession),
	}
}

// Register seats both participants of session, or neither.
func (r *Registry) Register(session *domain.GameSession) error {
	ids := session.Participants()
	if ids[0] == ids[1] {
		return domain.ErrAlreadyInSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if _, seated := r.byParticipant[id]; seated {
			return domain.ErrAlreadyInSession
		}
	}

	for _, id := range ids {
		r.byParticipant[id] = session
	}
	r.byID[session.ID()] = session

	return nil
}

func (r *Registry) Lookup(id domain.ParticipantID) (*domain.GameSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.byParticipant[id]
	return session, ok
}

func (r *Registry) Seated(id domain.ParticipantID) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Remove drops the mappings that still point at session.
func (r *Registry) Remove(session *domain.GameSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range session.Participants() {
		if r.byParticipant[id] == session {
			delete(r.byParticipant, id)
		}
	}
	if r.byID[session.ID()] == session {
		delete(r.byID, session.ID())
	}
}

func (r *Registry) Active() []*domain.GameSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*domain.GameSession, 0, len(r.byID))
	for _, s := range r.byID {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
