package test

import (
	"context"
	"sync"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

type RecordingRecorder struct {
	mu      sync.Mutex
	records []domain.GameRecord
	Err     error
}

func (r *RecordingRecorder) Record(_ context.Context, record domain.GameRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.records = append(r.records, record)
	return nil
}

func (r *RecordingRecorder) Records() []domain.GameRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.GameRecord(nil), r.records...)
}
