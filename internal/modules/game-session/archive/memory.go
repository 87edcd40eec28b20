package archive

import (
	"context"
	"sync"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

const DefaultMemoryCapacity = 1000

// MemoryStore keeps the most recent finished games in process. It is
// used when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	records  []domain.GameRecord
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{capacity: capacity}
}

func (s *MemoryStore) Record(_ context.Context, record domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.SessionID == record.SessionID {
			return nil
		}
	}

	s.records = append(s.records, record)
	if overflow := len(s.records) - s.capacity; overflow > 0 {
		s.records = append([]domain.GameRecord(nil), s.records[overflow:]...)
	}
	return nil
}

func (s *MemoryStore) FinishedGames(_ context.Context, id domain.ParticipantID, limit int) ([]domain.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]domain.GameRecord, 0)
	for i := len(s.records) - 1; i >= 0 && len(games) < limit; i-- {
		if r := s.records[i]; r.WhiteID == id || r.BlackID == id {
			games = append(games, r)
		}
	}
	return games, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
