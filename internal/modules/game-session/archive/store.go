// Package archive stores finished games.
package archive

import (
	"context"

	"github.com/eskrenkovic/matchroom/internal/modules/game-session/domain"
)

type Store interface {
	domain.Recorder
	FinishedGames(ctx context.Context, id domain.ParticipantID, limit int) ([]domain.GameRecord, error)
	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
